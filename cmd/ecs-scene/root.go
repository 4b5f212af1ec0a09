package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/scene"
	"github.com/plus3/ecsrt/ecs/transform"
	"github.com/plus3/ecsrt/internal/config"
)

// BindFunc registers component types and descriptor bindings on a fresh
// bridge.
type BindFunc func(bridge *scene.Bridge)

// BindBuiltins binds the descriptors this module ships.
func BindBuiltins(bridge *scene.Bridge) {
	transform.Bind(bridge, transform.Register(bridge.Registry()))
}

type app struct {
	bind         BindFunc
	configFile   string
	allowUnknown bool

	cfg    config.Config
	logger zerolog.Logger
}

func NewRootCmd(bind BindFunc) *cobra.Command {
	a := &app{bind: bind}
	root := &cobra.Command{
		Use:           "ecs-scene",
		Short:         "Inspect, convert and publish ECS scene documents",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "env file read before the environment")
	root.PersistentFlags().BoolVar(&a.allowUnknown, "allow-unknown", false,
		"ignore component types this binary has no descriptor for")

	root.AddCommand(
		newValidateCmd(a),
		newQueryCmd(a),
		newConvertCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// newBridge returns a bridge over a registry private to one command run.
func (a *app) newBridge() *scene.Bridge {
	bridge := scene.NewBridge(ecs.NewComponentRegistry(), a.cfg.BridgeOptions(a.logger)...)
	a.bind(bridge)
	return bridge
}

// load materializes doc into a scratch storage and returns it with the
// failures that matter under the current flags.
func (a *app) load(doc *scene.Document) (*scene.Bridge, *ecs.Storage, *scene.LoadResult, []scene.Failure, error) {
	bridge := a.newBridge()
	storage := ecs.NewStorage(bridge.Registry(), ecs.WithLogger(a.logger))
	result, err := bridge.Load(storage, doc)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	var failures []scene.Failure
	for _, f := range result.Failures {
		if a.allowUnknown && eris.Is(f.Err, scene.ErrUnknownComponent) {
			continue
		}
		failures = append(failures, f)
	}
	return bridge, storage, result, failures, nil
}

func componentNames(registry *ecs.ComponentRegistry, mask ecs.Mask) string {
	var names []string
	for id := range mask.Ids() {
		names = append(names, registry.Name(id))
	}
	return strings.Join(names, ", ")
}
