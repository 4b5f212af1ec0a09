package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"

	"github.com/plus3/ecsrt/ecs/scene/store"
)

func TestGdata(t *testing.T) {
	appName := fmt.Sprintf("ecsrt_store_test_%d", os.Getpid())
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Skipf("save data unavailable: %v", err)
	}
	s := store.NewGdata(manager)
	t.Cleanup(func() {
		ctx := context.Background()
		names, _ := s.List(ctx)
		for _, name := range names {
			_ = s.Delete(ctx, name)
		}
		_ = manager.DeleteObjectProp("scenes", "index")
	})

	exerciseStore(t, s)
}
