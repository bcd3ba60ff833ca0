package sdk

// Navigator performs client-side route changes.
type Navigator interface {
	Redirect(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) {
	if f != nil {
		f(path)
	}
}

type noopNavigator struct{}

func (noopNavigator) Redirect(string) {}
