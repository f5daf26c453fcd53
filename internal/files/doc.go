// Package files locates dataset files on disk.
//
// The configured dataset path may name a file or a directory. For a
// directory, Discovery picks the most recently modified .csv or .xlsx file,
// so a new statistics extract can be dropped next to the old one and picked
// up on the next start.
//
// Example usage:
//
//	discovery := files.NewDiscovery("")
//	path, err := discovery.ResolveDataset("data")
package files
