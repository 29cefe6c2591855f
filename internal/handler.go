package internal

// Handler declares routes on a router.
//
// Example:
//
//	type ReportHandler struct {
//	    forms *definitions.Manager
//	}
//
//	func (h *ReportHandler) Routes(r formtree.Router) {
//	    r.GET("/reports/{name}", h.show)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers. A returned error is
// passed to the app's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc.
//
// Example:
//
//	func ReadOnly(next formtree.HandlerFunc) formtree.HandlerFunc {
//	    return func(c formtree.Context) error {
//	        if c.Request().Method != http.MethodGet {
//	            return c.Error(http.StatusMethodNotAllowed, "read only")
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
