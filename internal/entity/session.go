package entity

import "time"

// Viewport is the rendering window size.
type Viewport struct {
	Width  int
	Height int
}

// Cookie is applied to a rendering session before navigation.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	Expires  time.Time
}
