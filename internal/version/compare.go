package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-scalper/pkg/errors"
)

// CheckConfigCompatibility checks that a config file written for configVersion
// can be loaded by an engine at engineVersion.
//
// Compatibility Rules:
//   - If either version is "main" or empty, the check is skipped
//   - Major versions must match exactly
//   - The config minor version must not be newer than the engine's
//   - Patch versions can differ
//
// Examples:
//   - Engine 0.3.0, Config 0.3.0 -> OK
//   - Engine 0.3.2, Config 0.2.0 -> OK (older config)
//   - Engine 0.3.0, Config 0.4.0 -> ERROR (config needs a newer engine)
//   - Engine 1.0.0, Config 0.3.0 -> ERROR (major differs)
func CheckConfigCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if engineVersion == "main" || configVersion == "main" || configVersion == "" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if engineSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > engineSemver.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"config version %s is newer than engine version %s",
			configSemver.String(), engineSemver.String())
	}

	return nil
}
