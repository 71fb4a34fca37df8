package wire

// ReportID addresses one of the MDS reports.
type ReportID uint8

const (
	// ReportSupportedFeatures is the feature report holding the supported features bitmask.
	ReportSupportedFeatures ReportID = 0x01

	// ReportDeviceIdentifier is the feature report holding the device identifier string.
	ReportDeviceIdentifier ReportID = 0x02

	// ReportDataURI is the feature report holding the chunk upload URI.
	ReportDataURI ReportID = 0x03

	// ReportAuthorization is the feature report holding the upload authorization header.
	ReportAuthorization ReportID = 0x04

	// ReportStreamControl is the control report used to enable or disable streaming.
	ReportStreamControl ReportID = 0x05

	// ReportStreamData is the input report carrying stream packets.
	ReportStreamData ReportID = 0x06
)

// Size limits.
const (
	// MaxDeviceIDLen is the device identifier capacity including the terminator.
	MaxDeviceIDLen = 64

	// MaxURILen is the data URI capacity including the terminator.
	MaxURILen = 128

	// MaxAuthLen is the authorization capacity including the terminator.
	MaxAuthLen = 128

	// MaxChunkDataLen is the maximum chunk data carried by one stream packet.
	MaxChunkDataLen = 63

	// MaxStreamPacketLen is the maximum stream packet size (sequence byte + data).
	MaxStreamPacketLen = MaxChunkDataLen + 1

	// SupportedFeaturesLen is the size of the supported features report.
	SupportedFeaturesLen = 4

	// MaxFeatureReportLen is the largest feature report payload.
	MaxFeatureReportLen = MaxURILen
)

// ConfigReports lists the feature reports that make up a DeviceConfig, in read order.
var ConfigReports = [...]ReportID{
	ReportSupportedFeatures,
	ReportDeviceIdentifier,
	ReportDataURI,
	ReportAuthorization,
}

// String returns the report name.
func (r ReportID) String() string {
	switch r {
	case ReportSupportedFeatures:
		return "SUPPORTED_FEATURES"
	case ReportDeviceIdentifier:
		return "DEVICE_IDENTIFIER"
	case ReportDataURI:
		return "DATA_URI"
	case ReportAuthorization:
		return "AUTHORIZATION"
	case ReportStreamControl:
		return "STREAM_CONTROL"
	case ReportStreamData:
		return "STREAM_DATA"
	default:
		return "UNKNOWN"
	}
}

// IsFeature reports whether r is one of the configuration feature reports.
func (r ReportID) IsFeature() bool {
	return r >= ReportSupportedFeatures && r <= ReportAuthorization
}

// Capacity returns the buffer size a reader should offer for report r.
// Returns 0 for reports that are not read.
func (r ReportID) Capacity() int {
	switch r {
	case ReportSupportedFeatures:
		return SupportedFeaturesLen
	case ReportDeviceIdentifier:
		return MaxDeviceIDLen
	case ReportDataURI:
		return MaxURILen
	case ReportAuthorization:
		return MaxAuthLen
	case ReportStreamData:
		return MaxStreamPacketLen
	default:
		return 0
	}
}
