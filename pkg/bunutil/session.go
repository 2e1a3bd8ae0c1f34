package bunutil

import (
	"time"

	"github.com/materials-commons/mcbun/pkg/mcpath"
	"github.com/materials-commons/mcbun/pkg/rerr"
	"github.com/materials-commons/mcbun/pkg/rpc"
)

// Session is a connection to the user's mcbund server.
type Session struct {
	Env    *Env
	client *rpc.Client
	parser mcpath.Parser
}

func NewSession(env *Env, timeout time.Duration) *Session {
	opts := []rpc.Option{
		rpc.WithAuthToken(env.AuthToken),
		rpc.WithConnectErrStatus(rerr.UserSockConnectErr),
	}

	if timeout > 0 {
		opts = append(opts, rpc.WithTimeout(timeout))
	}

	return &Session{
		Env:    env,
		client: rpc.NewClient(env.ServerURL, opts...),
		parser: mcpath.NewZoneParser(env.Zone, env.Cwd),
	}
}

// ResolvePath turns a command line path into an absolute path in the zone.
func (s *Session) ResolvePath(p string) (string, error) {
	lp, err := s.parser.Parse(p)
	if err != nil {
		return "", err
	}

	return lp.FullPath(), nil
}

func (s *Session) resource(name string) string {
	if name != "" {
		return name
	}

	return s.Env.DefaultResource
}
