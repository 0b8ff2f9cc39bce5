package main

import "github.com/killallgit/subclip/cmd"

// @title           subclip API
// @version         1.0.0
// @description     Subtitle search with confidence ranking and ffmpeg clip extraction for a local video library
// @contact.name    API Support
// @contact.url     https://github.com/killallgit/subclip
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http
func main() {
	cmd.Execute()
}
