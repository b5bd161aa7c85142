package nats

import (
	"github.com/zhulik/pal"

	"nunc/internal/core"
)

func Provide() pal.ServiceDef {
	return pal.ProvideList(
		pal.Provide(&NATS{}),
		pal.Provide[core.PostStore](&Store{}),
	)
}
