package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort     = "Packaging script helpers for self-hosted apps"
	MsgRootLong      = `appkit bundles the helpers app packaging scripts need: app settings,
manifest reading, Debian-style version comparison, MySQL provisioning,
Go toolchain management, system packages and permission hardening.`
	MsgSettingShort  = "Read and write app settings"
	MsgManifestShort = "Read the app packaging manifest"
	MsgVersionShort  = "Print version information or compare versions"
	MsgMySQLShort    = "Provision and manage an app's MySQL database"
	MsgGoShort       = "Manage per-app Go toolchains"
	MsgAptShort      = "Install and remove system package dependencies"
	MsgHardenShort   = "Apply the standard permission scheme to a directory"
	MsgSecureRmShort = "Remove an app path after safety checks"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun  = "Preview changes without executing them"
	MsgFlagApp     = "App id the command operates on (default $YNH_APP_ID)"

	// Status messages
	MsgDryRunNotice = "DRY RUN MODE - No changes were made"
)
