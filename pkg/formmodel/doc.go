// Package formmodel implements server-side forms as trees of widgets.
//
// A form is described once by a tree of definitions and instantiated per
// user session as a tree of widgets. Definitions are built, resolved and
// then locked; a locked tree may be shared by any number of goroutines.
// Widgets hold per-request state and are not safe for concurrent use.
//
// # Definitions
//
// [FormDefinition] is the root. Leaves are fields, boolean fields, outputs,
// uploads and actions; containers are structs, repeaters and unions:
//
//	def := formmodel.NewFormDefinition("order")
//	name := formmodel.NewFieldDefinition("name", datatype.String())
//	_ = name.SetRequired(true)
//	_ = def.AddChild(name)
//
//	items := formmodel.NewRepeaterDefinition("items")
//	_ = items.AddChild(formmodel.NewFieldDefinition("qty", datatype.Integer()))
//	_ = items.SetSizeRange(1, 20)
//	_ = def.AddChild(items)
//	_ = def.AddChild(formmodel.NewSubmitDefinition("save", true))
//
//	if err := def.Resolve(); err != nil {
//	    return err
//	}
//
// # Classes
//
// A [ClassDefinition] is a named subtree that is never instantiated itself.
// A [NewDefinition] created with [NewClassReference] is replaced by the
// class's children during [FormDefinition.Resolve]. Classes are declared as
// direct children of the form, registered with [FormDefinition.RegisterClass]
// or imported from a [Library] as "prefix:name". A class that reaches itself
// again is rejected with a [CycleError] unless a union lies in between,
// since union cases are only created on demand.
//
// Library classes see only their own library. [Library.Resolve] expands and
// locks a library once; forms importing it afterwards share it read-only.
//
// # Processing
//
// [Form.Process] runs one request cycle:
//
//  1. Events left from programmatic changes are delivered.
//  2. Every widget reads its value; raised events are queued.
//  3. The submit widget is resolved from the "forms_submit_id" parameter
//     unless an action already claimed the request.
//  4. Queued events are delivered in arrival order. Events raised by
//     listeners join the same queue.
//  5. Unless a listener or action called [Form.EndProcessing], the tree is
//     validated.
//
// Process reports true when the form is finished and false when it should
// be shown again. Errors are reserved for malformed requests and broken
// definitions; validation failures are attached to widgets and collected
// with [Form.ValidationErrors].
//
// # Repeaters
//
// A [Repeater] holds rows of one shape. Row ids are row indices, so the
// parameter names of row widgets change when rows move. A request selects
// the row count with "<repeater>.size" (at most [MaxRepeaterRows]) and may
// ask for a row operation with "<repeater>.action".
//
// # Rendering
//
// Every widget writes itself as a stream of [render.Event] values. The same
// stream can be encoded as XML, as HTML fragments or recorded in tests.
package formmodel
