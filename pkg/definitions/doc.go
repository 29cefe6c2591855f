// Package definitions loads form and library documents from a Source,
// builds them with formbuilder and caches the resolved definitions.
//
// Cache keys are fingerprints of the source identity, the document kind
// and name, and the cache policy. Each cached entry remembers the validity
// token of its document and of every library the form imports; before a
// cached definition is handed out the tokens are compared with the source
// and the definition is rebuilt when any of them changed.
//
//	m := definitions.NewManager(definitions.NewDirSource("forms"))
//	defer m.Close()
//
//	form, err := m.NewForm(ctx, "signup")
package definitions
