// Package config defines the navtrack configuration: external data sources
// (route, segments, directions, persistence) and every engine tunable. Values
// are loaded from yaml, validated, and passed explicitly into constructors;
// there is no package-level configuration state.
package config
