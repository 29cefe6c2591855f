// Package formtree serves declarative form definitions over HTTP.
//
// A form definition is a YAML or JSON document describing a tree of
// widgets: fields, uploads, actions, structs, repeaters and unions. The
// definitions package loads and caches them; formmodel turns them into
// live form instances that read requests, dispatch events, validate and
// render. This package hosts those instances as multi-request dialogues.
//
// # Quick Start
//
//	manager := definitions.NewManager(definitions.NewDirSource("forms"))
//	defer manager.Close()
//
//	app := formtree.New(
//	    formtree.WithLogger("formserver", middlewares.RequestIDExtractor(), logger.FormIDExtractor()),
//	    formtree.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	    ),
//	    formtree.WithHandlers(formtree.NewFormsHandler(manager)),
//	    formtree.WithHealthChecks(
//	        formtree.WithReadinessCheck("definitions", manager.Healthcheck()),
//	    ),
//	)
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Dialogues
//
// GET /forms/{name} creates an instance and renders it. The page posts
// back to the same path with the forms_instance_id parameter, so that the
// stored instance keeps repeater rows, uploads and union cases between
// requests. A finished form is removed from the store and handed to the
// CompletionFunc; an invalid one is rendered again with status 422.
//
// htmx requests are answered with status 200 and HX-Trigger carrying
// form-finished or form-invalid. The submitting element's name is used as
// the submit id when the request has none.
//
// # Localization
//
// Use middlewares.Locale with an i18n.Catalog and pass the catalog's
// Translator to the definitions manager:
//
//	catalog, _ := i18n.New(i18n.WithBuiltinMessages())
//	manager := definitions.NewManager(src,
//	    definitions.WithFormOptions(formmodel.WithLocalizer(catalog.Translator)),
//	)
package formtree
