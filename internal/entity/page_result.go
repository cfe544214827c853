package entity

import "time"

// MethodGET is the only request method the crawler issues.
const MethodGET = "GET"

// PageResult is the record produced for every successfully executed job.
// Field names follow the JSON output artifact.
type PageResult struct {
	LoadedURL          string    `json:"loadedUrl" yaml:"loadedUrl"`
	RequestedAt        time.Time `json:"requestedAt" yaml:"requestedAt"`
	Label              Label     `json:"label" yaml:"label"`
	PageFunctionResult any       `json:"pageFunctionResult" yaml:"pageFunctionResult"`
	ResponseStatus     int       `json:"responseStatus" yaml:"responseStatus"`
	Method             string    `json:"method" yaml:"method"`
	Proxy              *string   `json:"proxy" yaml:"proxy"`
}
