package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/plus3/ecsrt/ecs/cql"
	"github.com/plus3/ecsrt/ecs/scene"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "validate FILE",
		Short:   "Load a scene into a scratch world and report every failure",
		Example: "ecs-scene validate levels/intro.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scene.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, _, result, failures, err := a.load(doc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range result.Drift {
				fmt.Fprintf(out, "drift %s: %s\n", d.Type, d.Patch)
			}
			for _, f := range failures {
				fmt.Fprintln(out, f.Error())
			}
			if len(failures) > 0 {
				return eris.Errorf("%s: %d failures", args[0], len(failures))
			}
			fmt.Fprintf(out, "%s: %d entities, %d components ok\n", args[0], len(doc.Entities), doc.ComponentCount())
			return nil
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "query FILE EXPR",
		Short:   "List the entities of a scene matching a component query",
		Example: `ecs-scene query levels/intro.yaml "CONTAINS(Transform) & !EXACT(Identity, Transform)"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scene.ReadFile(args[0])
			if err != nil {
				return err
			}
			bridge, storage, _, _, err := a.load(doc)
			if err != nil {
				return err
			}
			filter, err := cql.Compile(args[1], bridge.Registry())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			count := 0
			for e := range cql.Search(storage, filter) {
				mask, _ := storage.Mask(e)
				ref := e.String()
				if identity := bridge.Identity().Get(storage, e); identity != nil {
					ref = identity.Ref()
				}
				fmt.Fprintf(out, "%s\t%s\n", ref, componentNames(bridge.Registry(), mask))
				count++
			}
			a.logger.Debug().Str("filter", filter.String()).Int("matched", count).Msg("query")
			return nil
		},
	}
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "convert IN OUT",
		Short:   "Rewrite a scene in the format implied by OUT's extension",
		Example: "ecs-scene convert levels/intro.yaml build/intro.json",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scene.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := scene.WriteFile(args[1], doc); err != nil {
				return err
			}
			a.logger.Info().Str("in", args[0]).Str("out", args[1]).
				Stringer("format", scene.FormatOf(args[1])).Msg("converted")
			return nil
		},
	}
}

func newPushCmd(a *app) *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:     "push NAME FILE",
		Short:   "Store a scene document under NAME",
		Example: "REDIS_ADDRESS=localhost:6379 ecs-scene push intro levels/intro.yaml",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scene.ReadFile(args[1])
			if err != nil {
				return err
			}
			if validate {
				_, _, _, failures, err := a.load(doc)
				if err != nil {
					return err
				}
				if len(failures) > 0 {
					return eris.Errorf("%s: %d failures, run validate for details", args[1], len(failures))
				}
			}
			s, closeStore, err := a.cfg.Store()
			if err != nil {
				return err
			}
			defer closeStore()
			return s.Save(cmd.Context(), args[0], doc)
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", true, "refuse to push a scene that fails to load")
	return cmd
}

func newPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "pull NAME OUT",
		Short:   "Write the stored scene NAME to a file",
		Example: "ecs-scene pull intro intro.json",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.cfg.Store()
			if err != nil {
				return err
			}
			defer closeStore()
			doc, err := s.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return scene.WriteFile(args[1], doc)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.cfg.Store()
			if err != nil {
				return err
			}
			defer closeStore()
			names, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeStore, err := a.cfg.Store()
			if err != nil {
				return err
			}
			defer closeStore()
			return s.Delete(cmd.Context(), args[0])
		},
	}
}
