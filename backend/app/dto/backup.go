package dto

// TriggerBackupPayload carries decrypted restic credentials to the agent.
type TriggerBackupPayload struct {
	TaskID   string `json:"taskId"`
	Source   string `json:"source"`
	Repo     string `json:"repo"`
	Password string `json:"password"`
	SSHKey   string `json:"sshKey,omitempty"`
}

// BackupCompletedPayload is the agent's event once a backup run ends.
type BackupCompletedPayload struct {
	TaskID string       `json:"taskId"`
	Result BackupResult `json:"result"`
}

type BackupResult struct {
	Status       string  `json:"status"` // ok,error
	SnapshotID   string  `json:"snapshotId"`
	FilesNew     int     `json:"filesNew"`
	DataAdded    int64   `json:"dataAdded"`
	Duration     float64 `json:"duration"`
	ErrorMessage string  `json:"errorMessage"`
}
