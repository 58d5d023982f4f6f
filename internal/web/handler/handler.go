// Package handler holds helpers shared by the resource handlers.
package handler

// ErrNilACDFatalLogMsg is used if the app, cfg or db pointer is nil.
const ErrNilACDFatalLogMsg = "app, cfg or db is nil"

// ListQuery is the common pagination query of every list endpoint.
type ListQuery struct {
	Take         int    `query:"take"`
	Skip         int    `query:"skip"`
	Search       string `query:"search"`
	OrderByField string `query:"orderByField"`
	OrderBySort  string `query:"orderBySort"`
}
