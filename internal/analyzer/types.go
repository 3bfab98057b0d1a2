package analyzer

// ReportEntry is one controller action whose declarations and views disagree
type ReportEntry struct {
	Controller string   `json:"controller"`
	Action     string   `json:"action"`
	Missing    []string `json:"missing"` // Used in views but never declared, sorted
	Unused     []string `json:"unused"`  // Declared but never used, sorted
	Views      []string `json:"views"`   // Root-relative views that were scanned
}

// RunStats are counters over a whole run
type RunStats struct {
	ControllerFiles int `json:"controller_files"` // Distinct controller files seen
	ViewFiles       int `json:"view_files"`       // Distinct view files seen
	ActionsChecked  int `json:"actions_checked"`
	ActionsSkipped  int `json:"actions_skipped"` // Via skip directive or config ignores
	TotalMissing    int `json:"total_missing"`   // Summed over reported entries
	TotalUnused     int `json:"total_unused"`    // Summed over reported entries
}

// add combines the counters of one controller into the run totals
func (s *RunStats) add(o RunStats) {
	s.ControllerFiles += o.ControllerFiles
	s.ViewFiles += o.ViewFiles
	s.ActionsChecked += o.ActionsChecked
	s.ActionsSkipped += o.ActionsSkipped
	s.TotalMissing += o.TotalMissing
	s.TotalUnused += o.TotalUnused
}

// ScanResult contains the complete check results
type ScanResult struct {
	Entries         []ReportEntry // In controller-file then action order
	Stats           RunStats
	ControllerFiles []string // Root-relative, sorted
	ViewFiles       []string // Root-relative, sorted
}

// Failed reports whether the run should exit non-zero
func (r *ScanResult) Failed() bool {
	return len(r.Entries) > 0
}

// OnlySkipped reports a clean run where every action was skipped
func (r *ScanResult) OnlySkipped() bool {
	return len(r.Entries) == 0 && r.Stats.ActionsChecked == 0 && r.Stats.ActionsSkipped > 0
}
