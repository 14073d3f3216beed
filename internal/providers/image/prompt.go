package image

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// sceneTypes is indexed by 1-based frame position.
var sceneTypes = []string{
	"wide establishing shot",
	"medium shot",
	"close-up shot",
	"dynamic action shot",
	"dramatic finale shot",
}

var qualityEnhancers = []string{
	"highly detailed",
	"cinematic lighting",
	"professional photography",
	"8k resolution",
	"sharp focus",
}

// BuildFramePrompt expands the base prompt for frame index (1-based) out of
// total frames. Positions past the scene table reuse the first scene type.
func BuildFramePrompt(base string, index, total int) string {
	scene := sceneTypes[0]
	if index >= 1 && index <= len(sceneTypes) {
		scene = sceneTypes[index-1]
	}
	parts := make([]string, 0, 2+len(qualityEnhancers))
	parts = append(parts, strings.TrimSpace(base), scene)
	parts = append(parts, qualityEnhancers...)
	return strings.Join(parts, ", ")
}

// FrameSeed derives a positive seed from the request and frame index so each
// frame of a run samples differently while staying reproducible per run.
func FrameSeed(requestID string, index int) int {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", requestID, index)))
	n := binary.BigEndian.Uint32(sum[:4]) % 2147483647
	if n == 0 {
		n = binary.BigEndian.Uint32(sum[4:8])%2147483646 + 1
	}
	return int(n)
}
