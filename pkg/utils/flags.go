package utils

import "strings"

// ParseLaunchFlag splits a renderer launch argument of the form
// "--name" or "--name=value". ok is false for anything else.
func ParseLaunchFlag(arg string) (name, value string, ok bool) {
	if !strings.HasPrefix(arg, "--") {
		return "", "", false
	}
	name, value, _ = strings.Cut(strings.TrimPrefix(arg, "--"), "=")
	if name == "" {
		return "", "", false
	}
	return name, value, true
}
