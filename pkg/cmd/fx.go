package cmd

import (
	"github.com/pseudomuto/chdata/pkg/starter"
	"go.uber.org/fx"
)

var Module = fx.Module("cli",
	fx.Provide(
		starter.NewFactory,
		fx.Annotate(configCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(ping, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(schema, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(publication, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(healthCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
