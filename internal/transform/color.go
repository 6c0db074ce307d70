package transform

import (
	"gocv.io/x/gocv"

	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

type channelStats struct {
	mean, std [3]float64
}

func labStats(lab gocv.Mat) channelStats {
	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(lab, &mean, &std)

	var stats channelStats
	for c := 0; c < 3; c++ {
		stats.mean[c] = mean.GetDoubleAt(c, 0)
		stats.std[c] = std.GetDoubleAt(c, 0)
	}
	return stats
}

func toLab(src gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	gocv.CvtColor(src, &lab, gocv.ColorBGRToLab)
	return lab
}

// colorTransfer moves the color distribution of the result toward the one of the original input,
// matching mean and standard deviation of each Lab channel.
func colorTransfer(_ model.Config, inputs []gocv.Mat) (gocv.Mat, error) {
	reference := toLab(inputs[0])
	defer reference.Close()
	target := toLab(inputs[1])
	defer target.Close()

	want, got := labStats(reference), labStats(target)

	channels := gocv.Split(target)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()

	shifted := make([]gocv.Mat, 0, len(channels))
	defer func() {
		for _, ch := range shifted {
			ch.Close()
		}
	}()
	for c, ch := range channels {
		alpha := 1.0
		if got.std[c] > 0 {
			alpha = want.std[c] / got.std[c]
		}
		beta := want.mean[c] - got.mean[c]*alpha

		out := gocv.NewMat()
		ch.ConvertToWithParams(&out, gocv.MatTypeCV8U, float32(alpha), float32(beta))
		shifted = append(shifted, out)
	}

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(shifted, &merged)

	dst := gocv.NewMat()
	gocv.CvtColor(merged, &dst, gocv.ColorLabToBGR)
	return dst, nil
}
