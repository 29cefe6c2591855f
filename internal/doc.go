// Package internal implements the HTTP host of formtree. Import
// "github.com/dmitrymomot/formtree", which re-exports the public API.
//
// # Application
//
// An App wraps a chi router. Handlers declare routes on a Router and
// receive a Context; errors they return go to the app's ErrorHandler:
//
//	app := internal.New(
//	    internal.WithLogger("formserver", middlewares.RequestIDExtractor()),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    internal.WithHandlers(internal.NewFormsHandler(manager)),
//	    internal.WithHealthChecks(internal.WithReadinessCheck("definitions", manager.Healthcheck())),
//	)
//	err := app.Run(":8080")
//
// # Forms
//
// FormsHandler serves GET and POST /forms/{name}. A GET creates a form
// instance and stores it in the FormStore under its instance id. A POST
// looks the instance up by the forms_instance_id parameter (or the
// X-Form-Instance header), processes the submission and either re-renders
// the form or hands it to the CompletionFunc once it is finished.
//
// Submissions are adapted with HTTPRequest: multipart parts become upload
// parts, htmx's HX-Trigger-Name header stands in for a missing submit-id
// parameter and the language chosen by the locale middleware drives value
// conversion.
//
// Fatal processing errors map to HTTP errors: a malformed submission is a
// 400, a broken definition a 500 and an unknown form a 404.
//
// # Rendering
//
// Forms render as HTML through a templ component, or as XML when the
// client asks for it. htmx requests always receive status 200 together
// with form-finished or form-invalid trigger events.
package internal
