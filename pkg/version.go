package pkg

// set with -ldflags "-X github.com/tenmans/tenmans/pkg.Version=... -X github.com/tenmans/tenmans/pkg.Commit=..."
var (
	Version = "dev"
	Commit  = "none"
)
