package report

import "secops-console/internal/model"

// Known findings a scan can surface. Each run draws a random subset.
var vulnerabilityCatalog = []model.VulnerabilityFinding{
	{
		ID:             "VF-001",
		CVE:            "CVE-2024-3094",
		Title:          "Backdoored xz-utils present on build host",
		Severity:       model.SeverityCritical,
		CVSS:           10.0,
		AffectedAsset:  "ci-runner-03",
		Recommendation: "Downgrade xz to 5.4.x and rotate SSH host keys",
	},
	{
		ID:             "VF-002",
		CVE:            "CVE-2023-44487",
		Title:          "HTTP/2 rapid reset exposure on edge",
		Severity:       model.SeverityHigh,
		CVSS:           7.5,
		AffectedAsset:  "lb-nginx-01",
		Recommendation: "Upgrade nginx and cap concurrent streams per connection",
	},
	{
		ID:             "VF-003",
		CVE:            "CVE-2021-44228",
		Title:          "Log4j JNDI lookup reachable in legacy service",
		Severity:       model.SeverityCritical,
		CVSS:           10.0,
		AffectedAsset:  "legacy-report-svc",
		Recommendation: "Upgrade log4j-core to 2.17+ or remove the JndiLookup class",
	},
	{
		ID:             "VF-004",
		Title:          "TLS 1.0 still accepted on admin endpoint",
		Severity:       model.SeverityMedium,
		CVSS:           5.3,
		AffectedAsset:  "portal-admin",
		Recommendation: "Restrict to TLS 1.2+ in the listener config",
	},
	{
		ID:             "VF-005",
		Title:          "Default credentials on camera management console",
		Severity:       model.SeverityHigh,
		CVSS:           8.8,
		AffectedAsset:  "cam-mgmt-01",
		Recommendation: "Set a unique admin password and restrict access to the management VLAN",
	},
	{
		ID:             "VF-006",
		Title:          "Directory listing enabled on static file host",
		Severity:       model.SeverityLow,
		CVSS:           3.7,
		AffectedAsset:  "media-cdn",
		Recommendation: "Disable autoindex on the static file server",
	},
	{
		ID:             "VF-007",
		CVE:            "CVE-2022-22965",
		Title:          "Spring4Shell-vulnerable framework version detected",
		Severity:       model.SeverityHigh,
		CVSS:           9.8,
		AffectedAsset:  "api-core",
		Recommendation: "Upgrade Spring Framework to 5.3.18+ / 5.2.20+",
	},
	{
		ID:             "VF-008",
		Title:          "S3 bucket policy allows public list",
		Severity:       model.SeverityMedium,
		CVSS:           6.5,
		AffectedAsset:  "backup-archive bucket",
		Recommendation: "Block public access at the account level and audit bucket policies",
	},
}

type controlSpec struct {
	ID          string
	Name        string
	Requirement string
}

// Controls evaluated by every compliance run.
var complianceCatalog = []controlSpec{
	{ID: "AC-01", Name: "Access review", Requirement: "Privileged accounts reviewed at least quarterly"},
	{ID: "AC-02", Name: "MFA enforcement", Requirement: "MFA required for all administrative access"},
	{ID: "AU-01", Name: "Audit log retention", Requirement: "Security logs retained for 180 days minimum"},
	{ID: "AU-02", Name: "Log integrity", Requirement: "Audit logs shipped to write-once storage"},
	{ID: "CM-01", Name: "Patch currency", Requirement: "Critical patches applied within 14 days of release"},
	{ID: "CP-01", Name: "Backup verification", Requirement: "Restore tested from backup within the last 30 days"},
	{ID: "IR-01", Name: "Incident runbooks", Requirement: "Documented response runbook for each critical service"},
	{ID: "SC-01", Name: "Encryption in transit", Requirement: "TLS 1.2+ for all external endpoints"},
	{ID: "SC-02", Name: "Secrets handling", Requirement: "No plaintext credentials in code or config repositories"},
	{ID: "PE-01", Name: "Physical access", Requirement: "Server room entry restricted and logged"},
}
