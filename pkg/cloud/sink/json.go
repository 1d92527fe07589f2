package sink

import (
	"encoding/json"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/errors"
)

// RenderJSON exports scene as indented JSON.
func RenderJSON(scene cloud.Scene) ([]byte, error) {
	if scene.Words == nil {
		scene.Words = []cloud.PlacedWord{}
	}
	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "marshal scene")
	}
	return data, nil
}

// ParseJSON reads a scene written by [RenderJSON].
func ParseJSON(data []byte) (cloud.Scene, error) {
	var scene cloud.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return cloud.Scene{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse scene json")
	}
	return scene, nil
}
