package render

import (
	"errors"
	"fmt"
	"image"
	colorpalette "image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"sort"
	"sync"
)

type frameResult struct {
	Index    int
	Paletted *image.Paletted
	Err      error
}

// Animate joins PNG figures into a looping GIF, one frame per file, each
// shown for delay hundredths of a second.
func Animate(pngs []string, out string, delay int) error {
	if len(pngs) == 0 {
		return errors.New("animate: no frames")
	}

	resultCh := make(chan frameResult, len(pngs))
	var wg sync.WaitGroup

	for index, fname := range pngs {
		wg.Add(1)
		go convertToPaletted(index, fname, resultCh, &wg)
	}

	wg.Wait()
	close(resultCh)

	var frameResults []frameResult
	for result := range resultCh {
		if result.Err != nil {
			return result.Err
		}
		frameResults = append(frameResults, result)
	}

	sort.Slice(frameResults, func(i, j int) bool {
		return frameResults[i].Index < frameResults[j].Index
	})

	anim := &gif.GIF{}
	for _, result := range frameResults {
		anim.Image = append(anim.Image, result.Paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("animate: %w", err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		return fmt.Errorf("animate: %w", err)
	}
	return f.Close()
}

func convertToPaletted(
	index int,
	fname string,
	resultCh chan<- frameResult,
	wg *sync.WaitGroup,
) {

	defer wg.Done()

	img, err := openPNG(fname)
	if err != nil {
		resultCh <- frameResult{Index: index, Err: err}
		return
	}

	paletted := image.NewPaletted(img.Bounds(), colorpalette.Plan9)
	draw.Draw(paletted, img.Bounds(), img, img.Bounds().Min, draw.Over)
	resultCh <- frameResult{Index: index, Paletted: paletted}
}

func openPNG(fname string) (image.Image, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("animate: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("animate: decode %s: %w", fname, err)
	}
	return img, nil
}
