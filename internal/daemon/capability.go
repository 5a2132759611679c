package daemon

// Capability is an optional client feature whose availability depends on the
// daemon protocol. Adding one requires a decision in every row of kinds.
type Capability uint8

const (
	FileListing Capability = iota
	FineDetails
	FilePaths
	StoppingStarting
	CustomFolder
	SetTransferRates
	AddByFile
	AddByMagnetURL
	RemoveWithData
	FilePrioritySetting
	DateAdded
	Labels
	SetLabel
	SetDownloadLocation
	SetTrackers
	ForceRecheck
	ExtraPassword
	UsernameForHTTP

	capabilityCount
)

var capabilityNames = [capabilityCount]string{
	FileListing:         "file-listing",
	FineDetails:         "fine-details",
	FilePaths:           "file-paths",
	StoppingStarting:    "stopping-starting",
	CustomFolder:        "custom-folder",
	SetTransferRates:    "set-transfer-rates",
	AddByFile:           "add-by-file",
	AddByMagnetURL:      "add-by-magnet-url",
	RemoveWithData:      "remove-with-data",
	FilePrioritySetting: "file-priority-setting",
	DateAdded:           "date-added",
	Labels:              "labels",
	SetLabel:            "set-label",
	SetDownloadLocation: "set-download-location",
	SetTrackers:         "set-trackers",
	ForceRecheck:        "force-recheck",
	ExtraPassword:       "extra-password",
	UsernameForHTTP:     "username-for-http",
}

// support is a single cell of the capability matrix. The zero value marks a
// cell nobody filled in, which init refuses.
type support uint8

const (
	undecided support = iota
	no
	yes
)

type capabilityRow [capabilityCount]support

func (c Capability) String() string {
	if c >= capabilityCount {
		return "unknown"
	}
	return capabilityNames[c]
}

// Capabilities returns every capability in declaration order.
func Capabilities() []Capability {
	out := make([]Capability, capabilityCount)
	for i := range out {
		out[i] = Capability(i)
	}
	return out
}

// ParseCapability resolves a name as returned by Capability.String.
func ParseCapability(name string) (Capability, bool) {
	for i, n := range capabilityNames {
		if n == name {
			return Capability(i), true
		}
	}
	return 0, false
}

// Supports reports whether the protocol of k can do c. It is the static
// ceiling for the protocol family, not what a particular daemon version
// negotiates. None supports nothing.
func Supports(k Kind, c Capability) bool {
	if !k.Valid() || c >= capabilityCount {
		return false
	}
	return kinds[k].caps[c] == yes
}

// Supports is shorthand for Supports(k, c).
func (k Kind) Supports(c Capability) bool {
	return Supports(k, c)
}

// SupportedCapabilities lists the capabilities k supports.
func SupportedCapabilities(k Kind) []Capability {
	var out []Capability
	for c := Capability(0); c < capabilityCount; c++ {
		if Supports(k, c) {
			out = append(out, c)
		}
	}
	return out
}
