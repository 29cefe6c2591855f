// Package upload models files submitted with a form request.
//
// A [Part] is the request-scoped handle an upload widget holds as its value.
// Parts are released as soon as they are superseded, which keeps memory and
// temporary files bounded while a multi-part request is being processed.
//
// # Rules
//
// Accepted parts are checked with [Rule] values. Rule failures are returned
// as [*RuleError], carrying a machine-readable code and the observed and
// permitted values:
//
//	err := upload.Check(part, upload.MaxSize(5<<20), upload.AllowedTypes("image/*"))
//	var re *upload.RuleError
//	if errors.As(err, &re) {
//	    fmt.Println(re.Code, re.Details["got"], re.Details["limit"])
//	}
//
// # Persistence
//
// [S3Store] copies an accepted part to S3-compatible object storage:
//
//	store, err := upload.NewS3Store(upload.S3Config{
//	    Bucket:    "uploads",
//	    AccessKey: os.Getenv("S3_ACCESS_KEY"),
//	    SecretKey: os.Getenv("S3_SECRET_KEY"),
//	})
//	info, err := store.Put(ctx, part, upload.WithPrefix("avatars"))
package upload
