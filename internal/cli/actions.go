package cli

// Command implementations are indirected through package variables so tests
// can stub them without starting a relay.
var (
	fnServe = serve

	fnAction  = postAction
	fnStatus  = showStatus
	fnDevices = listDevices
	fnSelect  = selectDevice

	fnPrefsList = prefsList
	fnPrefsGet  = prefsGet
	fnPrefsSet  = prefsSet
)
