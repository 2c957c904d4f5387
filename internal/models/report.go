package models

// DiskReading is a single utilization measurement of one mount point.
type DiskReading struct {
	MountPath  string  `json:"mount_path"`
	Percent    int     `json:"percent"`
	UsedBytes  uint64  `json:"used_bytes"`
	TotalBytes uint64  `json:"total_bytes"`
	Fstype     string  `json:"fstype,omitempty"`
	RawPercent float64 `json:"raw_percent"`
}

// CheckResult describes the outcome of one check run.
type CheckResult struct {
	Reading   DiskReading `json:"reading"`
	Threshold int         `json:"threshold"`
	Alerted   bool        `json:"alerted"`
	Identity  string      `json:"identity,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Alert is the notification payload published when a reading is at or over
// threshold.
type Alert struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
