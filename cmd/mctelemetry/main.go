package main

// loaderID is reported in every payload. Override at build time with
// -ldflags "-X main.loaderID=neoforge".
var loaderID = "forge"

func main() {
	Execute()
}
