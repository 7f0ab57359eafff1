// Package autoload initialises the global logger from LOG_* variables when
// imported for its side effect.
package autoload

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	logx "github.com/tanpawarit/Chative-Trip-Planner/pkg/logger"
)

func init() {
	conf := logx.DefaultConfig
	if err := envconfig.Process("LOG", &conf); err != nil {
		fmt.Fprintf(os.Stderr, "logger autoload: %v; using defaults\n", err)
		conf = logx.DefaultConfig
	}
	logx.Init(conf)
}
