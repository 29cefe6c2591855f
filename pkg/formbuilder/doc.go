// Package formbuilder builds form definitions from YAML documents.
//
// A document is either a form or a class library:
//
//	form: order
//	locale: de
//	imports:
//	  c: common
//	children:
//	  - field: name
//	    required: true
//	    label: Name
//	    validate:
//	      - length: {min: 2, max: 40}
//	  - struct: shipping
//	    children:
//	      - new: c:address
//	  - submit: send
//
//	library: common
//	classes:
//	  - class: address
//	    children:
//	      - field: street
//
// Every document is checked against an embedded JSON schema before it is
// decoded, so structural mistakes are reported together with their
// location in the document. Definitions carry "source:line" locations.
package formbuilder
