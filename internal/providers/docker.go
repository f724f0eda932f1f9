package providers

import (
	"context"
	"strings"
)

// DockerProvider reports daemon and container state.
type DockerProvider interface {
	Ping(ctx context.Context) error
	ContainerRunning(ctx context.Context, name string) (bool, error)
}

// DockerCLI shells out to the docker client.
type DockerCLI struct {
	Run CommandRunner
}

func (d *DockerCLI) Ping(ctx context.Context) error {
	_, err := d.Run(ctx, "docker", "info", "--format", "{{.ServerVersion}}")
	return err
}

func (d *DockerCLI) ContainerRunning(ctx context.Context, name string) (bool, error) {
	out, err := d.Run(ctx, "docker", "inspect", "-f", "{{.State.Running}}", name)
	if err != nil {
		// A missing container is a state, not a provider failure.
		if strings.Contains(err.Error(), "No such object") {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}
