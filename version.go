package libcel

// Version and BuildDate identify this build of the engine. Release builds
// override both through -ldflags "-X".
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)
