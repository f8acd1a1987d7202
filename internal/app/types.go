package app

type ResolveRequest struct {
	ManifestPath string
	OutputDir    string
	Concurrency  int
}

type ResolveResult struct {
	Resolved  int
	OutputDir string
}
