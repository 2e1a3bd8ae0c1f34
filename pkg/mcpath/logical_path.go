package mcpath

import (
	"path"
	"strings"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

type Parser interface {
	Parse(p string) (*LogicalPath, error)
}

// LogicalPath is a parsed absolute catalog path.
type LogicalPath struct {
	zone     string
	fullPath string
}

func (p *LogicalPath) Zone() string {
	return p.zone
}

func (p *LogicalPath) FullPath() string {
	return p.fullPath
}

func (p *LogicalPath) Collection() string {
	return path.Dir(p.fullPath)
}

func (p *LogicalPath) Name() string {
	return path.Base(p.fullPath)
}

// ZoneParser resolves paths for one zone. Relative paths are taken against cwd.
type ZoneParser struct {
	zone string
	cwd  string
}

func NewZoneParser(zone, cwd string) *ZoneParser {
	if cwd == "" {
		cwd = "/" + zone
	}

	return &ZoneParser{zone: zone, cwd: cwd}
}

func (p *ZoneParser) Parse(s string) (*LogicalPath, error) {
	if s == "" {
		return nil, rerr.New(rerr.SysInvalidFilePath, "empty path")
	}

	if !strings.HasPrefix(s, "/") {
		s = path.Join(p.cwd, s)
	}

	full := path.Clean(s)
	zone := Zone(full)
	if zone == "" || (p.zone != "" && zone != p.zone) {
		return nil, rerr.New(rerr.SysInvalidFilePath, "%s is not in zone %s", full, p.zone)
	}

	return &LogicalPath{zone: zone, fullPath: full}, nil
}
