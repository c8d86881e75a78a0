package buildinfo

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

func Info() map[string]string {
	return map[string]string{
		"name":    "pushrelay",
		"version": Version,
		"commit":  Commit,
		"builtAt": BuiltAt,
	}
}
