package cmd

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spaghettifunk/lumen/engine/assets"
	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/urfave/cli"
)

// ListAssets prints the images and models found under the asset root.
func ListAssets(ctx *cli.Context) error {
	if _, _, err := loadConfig(ctx); err != nil {
		return err
	}

	am, err := assets.NewAssetManager(ctx.String("assets"))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Asset", "Type", "Size", "Modified"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	var total int64
	all := am.Assets(loaders.ResourceTypeNone)
	for _, a := range all {
		total += a.Size
		table.Append([]string{
			a.Path,
			a.Type.String(),
			fmt.Sprintf("%d", a.Size),
			a.ModTime.Format(time.DateTime),
		})
	}
	table.SetFooter([]string{fmt.Sprintf("%d assets", len(all)), "", fmt.Sprintf("%d", total), ""})
	table.Render()
	return nil
}
