// Command replay plays scripted editing scenarios against a headless map
// surface and prints the resulting features as GeoJSON.
package main

func main() {
	Execute()
}
