package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// ZoomRatioRange is a vendor-supplied zoom range override for a physical
// camera.
type ZoomRatioRange struct {
	Min float64
	Max float64
}

// PhysicalCameraInfo describes one physical camera under a logical camera.
type PhysicalCameraInfo struct {
	PhysicalCameraID string
	Category         CameraCategory

	// ZoomRatioRange is nil when the vendor supplies no override; the
	// camera's own capability range applies then.
	ZoomRatioRange *ZoomRatioRange
}

// VendorCameraPrefs holds camera information vendors override through
// configuration files: the logical-to-physical camera mapping (in order of
// preference), per-physical-camera zoom ranges, and the ignored camera list.
type VendorCameraPrefs struct {
	logicalToPhysical map[string][]PhysicalCameraInfo
	ignored           []string
}

// NewVendorCameraPrefs builds prefs from already-parsed data; used by the
// loaders and by tests.
func NewVendorCameraPrefs(logicalToPhysical map[string][]PhysicalCameraInfo, ignored []string) *VendorCameraPrefs {
	if logicalToPhysical == nil {
		logicalToPhysical = make(map[string][]PhysicalCameraInfo)
	}
	return &VendorCameraPrefs{
		logicalToPhysical: logicalToPhysical,
		ignored:           ignored,
	}
}

// PhysicalCameraInfos returns the physical cameras mapped under the given
// main camera id, or nil when the vendor supplies no mapping for it.
func (v *VendorCameraPrefs) PhysicalCameraInfos(mainID string) []PhysicalCameraInfo {
	return v.logicalToPhysical[mainID]
}

// ZoomRatioRange returns the custom zoom range for the given camera, or nil
// when no override exists.
func (v *VendorCameraPrefs) ZoomRatioRange(id CameraID) *ZoomRatioRange {
	if info := v.physicalCameraInfo(id); info != nil {
		return info.ZoomRatioRange
	}
	return nil
}

// Category returns the vendor-assigned category for the given camera, or
// CameraCategoryUnknown when none is specified.
func (v *VendorCameraPrefs) Category(id CameraID) CameraCategory {
	if info := v.physicalCameraInfo(id); info != nil {
		return info.Category
	}
	return CameraCategoryUnknown
}

func (v *VendorCameraPrefs) physicalCameraInfo(id CameraID) *PhysicalCameraInfo {
	for i, info := range v.logicalToPhysical[id.MainID] {
		if info.PhysicalCameraID == id.PhysicalID {
			return &v.logicalToPhysical[id.MainID][i]
		}
	}
	return nil
}

// IgnoredCameras returns the ignored camera id list.
func (v *VendorCameraPrefs) IgnoredCameras() []string {
	return v.ignored
}

// IsIgnored reports whether the given main camera id is on the ignored list.
func (v *VendorCameraPrefs) IsIgnored(mainID string) bool {
	for _, id := range v.ignored {
		if id == mainID {
			return true
		}
	}
	return false
}

// LoadVendorCameraPrefs reads the three vendor preference JSON files. Every
// file is optional, and a malformed file degrades to a partial or empty
// result with an error logged; the daemon must run with default behavior when
// vendor overlays are absent or broken.
func LoadVendorCameraPrefs(mappingPath, zoomRangesPath, ignoredPath string, logger *slog.Logger) *VendorCameraPrefs {
	ranges := map[string]ZoomRatioRange{}
	if zoomRangesPath != "" {
		r, err := loadZoomRatioRanges(zoomRangesPath)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("no vendor zoom ratio ranges file", "path", zoomRangesPath)
			} else {
				logger.Error("failed to parse vendor zoom ratio ranges, ignoring overrides", "path", zoomRangesPath, "error", err)
			}
		} else {
			ranges = r
		}
	}

	mapping := map[string][]PhysicalCameraInfo{}
	if mappingPath != "" {
		m, err := loadPhysicalCameraMapping(mappingPath, ranges)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("no vendor physical camera mapping file", "path", mappingPath)
			} else {
				logger.Error("failed to parse vendor physical camera mapping, ignoring", "path", mappingPath, "error", err)
			}
		} else {
			mapping = m
		}
	}

	var ignored []string
	if ignoredPath != "" {
		list, err := loadIgnoredCameras(ignoredPath)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debug("no ignored cameras file", "path", ignoredPath)
			} else {
				logger.Error("failed to parse ignored cameras, running with a partial list", "path", ignoredPath, "error", err)
			}
		}
		ignored = list
	}

	return NewVendorCameraPrefs(mapping, ignored)
}

// loadZoomRatioRanges parses a JSON object keyed by logical camera id, whose
// values map physical camera ids to 2-element [min, max] arrays. The result
// is keyed by CameraID identifier. Any invalid range rejects the whole file.
func loadZoomRatioRanges(path string) (map[string]ZoomRatioRange, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string][]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode zoom ratio ranges: %w", err)
	}

	ranges := make(map[string]ZoomRatioRange)
	for logCam, physMap := range raw {
		for physCam, vals := range physMap {
			if len(vals) != 2 {
				return nil, fmt.Errorf("camera %s-%s: zoom ratio range must hold exactly 2 values, found %d", logCam, physCam, len(vals))
			}
			if vals[0] <= 0 || vals[1] <= 0 || vals[0] >= vals[1] {
				return nil, fmt.Errorf("camera %s-%s: zoom ratio range values must be positive with min < max, found [%v, %v]", logCam, physCam, vals[0], vals[1])
			}
			ranges[NewCameraID(logCam, physCam).String()] = ZoomRatioRange{Min: vals[0], Max: vals[1]}
		}
	}
	return ranges, nil
}

// loadPhysicalCameraMapping parses a JSON object keyed by logical camera id,
// whose values map physical camera ids to category labels (W, UW, T, S, O).
// Zoom range overrides from the ranges map are attached per physical camera.
func loadPhysicalCameraMapping(path string, ranges map[string]ZoomRatioRange) (map[string][]PhysicalCameraInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode physical camera mapping: %w", err)
	}

	mapping := make(map[string][]PhysicalCameraInfo)
	for logCam, physMap := range raw {
		// JSON objects carry no order; sort physical ids so the
		// preference order is at least deterministic.
		physIDs := make([]string, 0, len(physMap))
		for physCam := range physMap {
			physIDs = append(physIDs, physCam)
		}
		sort.Strings(physIDs)

		infos := make([]PhysicalCameraInfo, 0, len(physIDs))
		for _, physCam := range physIDs {
			info := PhysicalCameraInfo{
				PhysicalCameraID: physCam,
				Category:         cameraCategoryFromLabel(physMap[physCam]),
			}
			if r, ok := ranges[NewCameraID(logCam, physCam).String()]; ok {
				info.ZoomRatioRange = &ZoomRatioRange{Min: r.Min, Max: r.Max}
			}
			infos = append(infos, info)
		}
		mapping[logCam] = infos
	}
	return mapping, nil
}

// loadIgnoredCameras parses a JSON array of camera id strings.
func loadIgnoredCameras(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ignored []string
	if err := json.Unmarshal(b, &ignored); err != nil {
		return nil, fmt.Errorf("decode ignored cameras: %w", err)
	}
	return ignored, nil
}
