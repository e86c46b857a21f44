// Command dirscan is a concurrent web path/file discovery scanner with
// soft-404 (wildcard) detection, recursive directory discovery, and
// optional content-crawling for additional candidates.
package main

func main() {
	Execute()
}
