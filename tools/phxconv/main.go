package main

import (
	"context"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/overgrowth_browser/config"
	"github.com/mogaika/overgrowth_browser/pack/phxbn"
	"github.com/mogaika/overgrowth_browser/status"
	"github.com/mogaika/overgrowth_browser/utils"
)

func settings(cmd *cli.Command) (*config.Settings, error) {
	s := config.DefaultSettings()
	if path := cmd.String("config"); path != "" {
		var err error
		if s, err = config.LoadSettings(path); err != nil {
			return nil, err
		}
	}
	if enc := cmd.String("encoding"); enc != "" {
		s.Encoding = enc
	}
	if err := s.Apply(); err != nil {
		return nil, err
	}
	return s, nil
}

func args(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.NArg() != len(names) {
		return nil, errors.Errorf("%s expects %d arguments: %v", cmd.Name, len(names), names)
	}
	result := make([]string, len(names))
	for i := range names {
		result[i] = cmd.Args().Get(i)
	}
	return result, nil
}

func trianglesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "triangles",
		Usage: "mesh triangle count, required for skeletons older than version 11",
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "phxconv",
		Usage: "inspect and convert overgrowth skeletons and animations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "settings yaml file",
				Sources: cli.EnvVars("PHX_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "encoding",
				Usage:   "codepage of names stored in files",
				Sources: cli.EnvVars("PHX_ENCODING"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "encodings",
				Usage: "list codepages accepted by --encoding",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					for _, name := range config.ListEncodings() {
						fmt.Println(name)
					}
					return nil
				},
			},
			{
				Name:      "dump",
				Usage:     "print decoded file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yaml", Usage: "print as yaml"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if _, err := settings(cmd); err != nil {
						return err
					}
					a, err := args(cmd, "FILE")
					if err != nil {
						return err
					}
					inst, err := load(a[0])
					if err != nil {
						return err
					}
					if cmd.Bool("yaml") {
						enc := yaml.NewEncoder(os.Stdout)
						defer enc.Close()
						return enc.Encode(inst)
					}
					utils.FDump(os.Stdout, inst)
					return nil
				},
			},
			{
				Name:      "upgrade",
				Usage:     "rewrite file at the latest format version",
				ArgsUsage: "IN OUT",
				Flags:     []cli.Flag{trianglesFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if _, err := settings(cmd); err != nil {
						return err
					}
					a, err := args(cmd, "IN", "OUT")
					if err != nil {
						return err
					}
					return upgrade(a[0], a[1], int(cmd.Int("triangles")))
				},
			},
			{
				Name:      "batch",
				Usage:     "upgrade every known file of a directory",
				ArgsUsage: "DIR OUT",
				Flags: []cli.Flag{
					trianglesFlag(),
					&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "parallel conversions"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := settings(cmd)
					if err != nil {
						return err
					}
					a, err := args(cmd, "DIR", "OUT")
					if err != nil {
						return err
					}
					jobs := s.Batch.Jobs
					if cmd.IsSet("jobs") {
						jobs = int(cmd.Int("jobs"))
					}
					if jobs < 1 {
						return errors.Errorf("invalid jobs count %d", jobs)
					}
					res, err := batch(ctx, a[0], a[1], jobs, int(cmd.Int("triangles")))
					if err != nil {
						return err
					}
					status.Info("Converted %d files, %d failed", res.Converted, res.Failed)
					log.Printf("[phxconv] Converted %d files, %d failed", res.Converted, res.Failed)
					return nil
				},
			},
			{
				Name:      "gltf",
				Usage:     "export skeleton as binary gltf",
				ArgsUsage: "FILE.phxbn OUT.glb",
				Flags:     []cli.Flag{trianglesFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if _, err := settings(cmd); err != nil {
						return err
					}
					a, err := args(cmd, "FILE", "OUT")
					if err != nil {
						return err
					}
					return exportGLTF(a[0], a[1], int(cmd.Int("triangles")))
				},
			},
			{
				Name:      "fbx",
				Usage:     "export skeleton as fbx",
				ArgsUsage: "FILE.phxbn OUT.fbx",
				Flags:     []cli.Flag{trianglesFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if _, err := settings(cmd); err != nil {
						return err
					}
					a, err := args(cmd, "FILE", "OUT")
					if err != nil {
						return err
					}
					return exportFbx(a[0], a[1], int(cmd.Int("triangles")))
				},
			},
			{
				Name:      "preview",
				Usage:     "render skeleton front view to webp",
				ArgsUsage: "FILE.phxbn OUT.webp",
				Flags: []cli.Flag{
					trianglesFlag(),
					&cli.IntFlag{Name: "size", Usage: "image size in pixels"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := settings(cmd)
					if err != nil {
						return err
					}
					a, err := args(cmd, "FILE", "OUT")
					if err != nil {
						return err
					}
					opt := phxbn.PreviewOptions{Size: s.Preview.Size, Supersample: s.Preview.Supersample}
					if cmd.IsSet("size") {
						opt.Size = int(cmd.Int("size"))
					}
					return writePreview(a[0], a[1], opt, int(cmd.Int("triangles")))
				},
			},
			{
				Name:      "rig",
				Usage:     "rebuild editor armature from skeleton and print it",
				ArgsUsage: "FILE.phxbn",
				Flags:     []cli.Flag{trianglesFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := settings(cmd)
					if err != nil {
						return err
					}
					a, err := args(cmd, "FILE")
					if err != nil {
						return err
					}
					arm, err := rebuildArmature(a[0], s.Weights.FallbackThreshold, int(cmd.Int("triangles")))
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(arm)
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("[phxconv] %v", err)
	}
}
