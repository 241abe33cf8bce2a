package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	if err := c.ShouldBindJSON(&params); err != nil {
		return params, err
	}

	return params, nil
}

// ParseBool accepts the usual spellings of a boolean query value.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("value could not be parsed to a boolean: %q", value)
	}
}

func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)

	if err != nil {
		return 0, fmt.Errorf("value is not a valid integer: %q", value)
	}

	return id, nil
}
