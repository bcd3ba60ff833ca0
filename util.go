package sdk

import (
	"strconv"
	"strings"
)

func expandPath(template, param string, id int) string {
	return strings.ReplaceAll(template, param, strconv.Itoa(id))
}
