package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chdata/pkg/publish"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type (
	publicationView struct {
		Name        string               `yaml:"name"`
		Coordinates string               `yaml:"coordinates"`
		POM         publish.POM          `yaml:"pom"`
		Repository  publish.Repository   `yaml:"repository"`
		Credentials map[string]valueView `yaml:"credentials"`
	}

	valueView struct {
		Source string `yaml:"source"`
		Key    string `yaml:"key,omitempty"`
	}
)

// publication prints the coordinates of the release (or snapshot)
// publication and where its credentials resolve from. Credential values are
// never printed. The command fails when anything is missing.
//
// Example usage:
//
//	chdata publication
//	chdata publication --snapshot --properties ~/.gradle/gradle.properties
func publication() *cli.Command {
	return &cli.Command{
		Name:  "publication",
		Usage: "Print publishing coordinates and credential sources",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "snapshot",
				Usage: "describe the snapshot publication",
			},
			&cli.StringFlag{
				Name:    "properties",
				Aliases: []string{"p"},
				Usage:   "build properties file holding gpr.user, gpr.key and gpr.url",
				Value:   "gradle.properties",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := publish.RuntimeToolchain(); err != nil {
				return err
			}

			props, err := publish.LoadPropertiesFile(cmd.String("properties"))
			if err != nil {
				return err
			}

			resolver := publish.NewResolver(props, os.LookupEnv)

			pub := publish.Release(resolver)
			if cmd.Bool("snapshot") {
				pub = publish.Snapshot(resolver)
			}

			view := publicationView{
				Name:        pub.Name,
				Coordinates: pub.Coordinates.String(),
				POM:         pub.POM,
				Repository:  pub.Repository,
				Credentials: map[string]valueView{
					"username": viewOf(pub.Credentials.Username),
					"password": viewOf(pub.Credentials.Password),
				},
			}

			data, err := yaml.Marshal(&view)
			if err != nil {
				return errors.Wrap(err, "failed to encode publication")
			}

			if _, err := fmt.Fprint(output(cmd), string(data)); err != nil {
				return err
			}

			return pub.Validate()
		},
	}
}

func viewOf(v publish.Value) valueView {
	if !v.Set() {
		return valueView{Source: v.Source.String()}
	}

	return valueView{Source: v.Source.String(), Key: v.Key}
}
