package main

import "regexp"

// cameraIDSplitter joins the main and physical camera ids in the string
// identifier form. An absent physical id is rendered as the literal "null".
const cameraIDSplitter = "-"

// CameraCategory labels a physical camera for UI purposes while cycling
// through camera ids.
type CameraCategory int

const (
	CameraCategoryUnknown CameraCategory = iota
	CameraCategoryStandard
	CameraCategoryWideAngle
	CameraCategoryUltraWide
	CameraCategoryTelephoto
	CameraCategoryOther
)

func (c CameraCategory) String() string {
	switch c {
	case CameraCategoryStandard:
		return "standard"
	case CameraCategoryWideAngle:
		return "wide_angle"
	case CameraCategoryUltraWide:
		return "ultra_wide"
	case CameraCategoryTelephoto:
		return "telephoto"
	case CameraCategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// cameraCategoryFromLabel maps the single-letter labels used in the vendor
// preference files. Unknown labels map to CameraCategoryUnknown.
func cameraCategoryFromLabel(label string) CameraCategory {
	switch label {
	case "W":
		return CameraCategoryWideAngle
	case "UW":
		return CameraCategoryUltraWide
	case "T":
		return CameraCategoryTelephoto
	case "S":
		return CameraCategoryStandard
	case "O":
		return CameraCategoryOther
	default:
		return CameraCategoryUnknown
	}
}

// CameraID identifies a camera device together with its underlying physical
// camera, when the main camera is a logical multi-camera. PhysicalID is empty
// when the main camera is used directly.
type CameraID struct {
	MainID     string
	PhysicalID string
}

// NewCameraID builds a CameraID; physicalID may be empty.
func NewCameraID(mainID, physicalID string) CameraID {
	return CameraID{MainID: mainID, PhysicalID: physicalID}
}

// String renders the identifier form, e.g. "0-2" or "0-null".
func (c CameraID) String() string {
	phys := c.PhysicalID
	if phys == "" {
		phys = "null"
	}
	return c.MainID + cameraIDSplitter + phys
}

var cameraIDPattern = regexp.MustCompile(`^\d+` + cameraIDSplitter + `(?:\d+|null)$`)

// ParseCameraID restores a CameraID from its identifier form. Identifiers
// that do not match the expected pattern yield ok == false.
func ParseCameraID(identifier string) (CameraID, bool) {
	if !cameraIDPattern.MatchString(identifier) {
		return CameraID{}, false
	}

	sep := len(identifier)
	for i := range identifier {
		if identifier[i] == cameraIDSplitter[0] {
			sep = i
			break
		}
	}
	mainID := identifier[:sep]
	physicalID := identifier[sep+1:]
	if physicalID == "null" {
		physicalID = ""
	}
	return CameraID{MainID: mainID, PhysicalID: physicalID}, true
}
