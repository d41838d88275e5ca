package core

// Version and GitSHA are set at build time with
//
//	go build -ldflags "-X github.com/zycbobby/regiontree/core.Version=1.0.0 -X github.com/zycbobby/regiontree/core.GitSHA=abc1234"
var (
	Version = "0.0.0"
	GitSHA  = "0000000"
)
