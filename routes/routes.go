// Package routes provides shared route constants used by the SDK, the identity
// adapter and the local UI to prevent path mismatches.
package routes

// Backend API paths, relative to the backend origin.
const (
	// Pets lists and creates pet records for the signed-in owner.
	Pets = "/pets/"

	// PetVaccinations lists and records vaccinations of one pet.
	PetVaccinations = "/pets/{pet_id}/vaccinations/"

	// VaccinationsUpcoming lists the owner's next due vaccinations.
	VaccinationsUpcoming = "/vaccinations/upcoming"

	// DiagnoseText asks for an AI-assisted diagnosis from a symptom
	// description. The voice assistant posts its questions here too.
	DiagnoseText = "/diagnose/text"

	// NutritionAnalysis returns feeding advice for a breed, weight and age.
	NutritionAnalysis = "/diagnose/nutrition-analysis"

	// PlacesNearby searches vets or pharmacies around a coordinate.
	PlacesNearby = "/places/nearby"

	// Me returns the signed-in owner.
	Me = "/me"

	// Verify checks the bearer credential.
	Verify = "/verify"
)

// Identity service paths, relative to the identity service origin.
const (
	AccountsSignIn        = "/v1/accounts:signIn"
	AccountsSignUp        = "/v1/accounts:signUp"
	AccountsSignInWithIdp = "/v1/accounts:signInWithIdp"
	AccountsSignOut       = "/v1/accounts:signOut"
	Token                 = "/v1/token" // #nosec G101 -- route path, not a credential
)

// Client-side (UI) paths.
const (
	// AppLogin is the sign-in entry point.
	AppLogin = "/login"

	// AppSignup is the sign-up entry point.
	AppSignup = "/register"

	// AppLogout ends the session.
	AppLogout = "/logout"

	// AppHome is the default protected view (the pets dashboard).
	AppHome = "/"

	AppDiagnosis = "/diagnosis"
	AppVets      = "/vets"
	AppNutrition = "/nutrition"

	// AppMetrics exposes Prometheus metrics from the local UI server.
	AppMetrics = "/metrics"
)
