//go:build nogpu

package main

import (
	"fmt"

	"github.com/gogpu/molrep/render"
)

func newBackend(name string) (render.Backend, error) {
	if name != "stats" {
		return nil, fmt.Errorf("backend %q needs a build without the nogpu tag", name)
	}
	return render.NewStatsBackend(), nil
}
