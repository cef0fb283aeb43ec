package dicom

import (
	"fmt"
	"hash/fnv"
	"image"
	"math"
	randv2 "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/mrsinham/cxrreport/internal/dicom/corruption"
	"github.com/mrsinham/cxrreport/internal/dicom/edgecases"
	"github.com/mrsinham/cxrreport/internal/dicom/modalities"
	"github.com/mrsinham/cxrreport/internal/util"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultImageSize is the edge length of generated radiographs.
const DefaultImageSize = 256

// RadiographOptions contains all parameters needed to generate a batch of
// synthetic chest radiographs.
type RadiographOptions struct {
	NumImages   int
	OutputDir   string
	Seed        int64 // 0 = derived from OutputDir
	Size        int   // rows and columns, 0 = DefaultImageSize
	NumPatients int   // images are distributed among patients, one study each
	Workers     int   // 0 = auto-detect based on CPU cores

	Modality modalities.Modality

	// OmitTags names header attributes left out of every file.
	OmitTags []string

	EdgeCaseConfig   edgecases.Config
	CorruptionConfig corruption.Config

	Logger           *zap.Logger
	ProgressCallback func(current, total int)
}

// GeneratedFile contains information about a generated DICOM file
type GeneratedFile struct {
	Path           string
	StudyUID       string
	SeriesUID      string
	SOPInstanceUID string
	PatientID      string
	SeriesNumber   int
	InstanceNumber int

	Omitted    []string                  // attribute names left out
	Blanked    []string                  // attribute names written empty
	Corruption corruption.CorruptionType // "" for an intact file
}

// imageTask contains all data needed to generate a single DICOM image
type imageTask struct {
	index       int
	size        int
	filePath    string
	textOverlay string
	pixelSeed   uint64
	metadata    []*dicom.Element
	pixelConfig modalities.PixelConfig
	inverted    bool
	damage      func(path string) error
}

type patientInfo struct {
	ID        string
	Name      string
	Sex       string
	BirthDate string
}

// GenerateRadiographs writes opts.NumImages synthetic radiographs into
// opts.OutputDir and returns them in generation order. Output is
// deterministic for a given seed.
func GenerateRadiographs(opts RadiographOptions) ([]GeneratedFile, error) {
	if opts.NumImages <= 0 {
		return nil, fmt.Errorf("number of images must be > 0, got %d", opts.NumImages)
	}
	if opts.NumPatients <= 0 {
		opts.NumPatients = 1
	}
	if opts.NumPatients > opts.NumImages {
		return nil, fmt.Errorf("number of patients (%d) cannot exceed number of images (%d)", opts.NumPatients, opts.NumImages)
	}
	size := opts.Size
	if size == 0 {
		size = DefaultImageSize
	}
	if size < 32 {
		return nil, fmt.Errorf("image size must be >= 32, got %d", size)
	}
	if opts.Modality == "" {
		opts.Modality = modalities.DX
	}
	if !modalities.IsValid(string(opts.Modality)) {
		return nil, fmt.Errorf("unsupported modality %q, valid: %v", opts.Modality, modalities.AllModalities())
	}
	if err := opts.EdgeCaseConfig.Validate(); err != nil {
		return nil, err
	}
	if err := opts.CorruptionConfig.Validate(opts.NumImages); err != nil {
		return nil, err
	}
	omit, omitNames, err := resolveOmitTags(opts.OmitTags)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		// same directory = same patient/study IDs
		h := fnv.New64a()
		_, _ = h.Write([]byte(opts.OutputDir)) // hash.Write never returns an error
		seed = int64(h.Sum64())
	}
	logger.Info("generating radiographs",
		zap.Int("count", opts.NumImages),
		zap.String("modality", string(opts.Modality)),
		zap.Int("size", size),
		zap.Int64("seed", seed))

	rng := randv2.New(randv2.NewPCG(uint64(seed), uint64(seed)))

	var edgeCaseApplicator *edgecases.Applicator
	if opts.EdgeCaseConfig.IsEnabled() {
		edgeCaseApplicator = edgecases.NewApplicator(opts.EdgeCaseConfig, rng)
	}
	var corruptionApplicator *corruption.Applicator
	if opts.CorruptionConfig.IsEnabled() {
		corruptionApplicator = corruption.NewApplicator(opts.CorruptionConfig, rng)
	}

	patients := make([]patientInfo, opts.NumPatients)
	for i := range patients {
		sex := []string{"M", "F"}[rng.IntN(2)]
		patients[i] = patientInfo{
			ID:   fmt.Sprintf("PID%06d", rng.IntN(900000)+100000),
			Sex:  sex,
			Name: util.GeneratePatientName(sex, rng),
			BirthDate: fmt.Sprintf("%04d%02d%02d",
				rng.IntN(61)+1940, // 1940-2000
				rng.IntN(12)+1,
				rng.IntN(28)+1),
		}
	}

	modalityGen := modalities.GetGenerator(opts.Modality)
	pixelConfig := modalityGen.PixelConfig()
	scanners := modalityGen.Scanners()

	// Phase 1: build all tasks sequentially (maintains determinism)
	tasks := make([]imageTask, 0, opts.NumImages)
	files := make([]GeneratedFile, 0, opts.NumImages)
	imagesPerPatient := opts.NumImages / opts.NumPatients
	remaining := opts.NumImages % opts.NumPatients
	index := 1

	for p, patient := range patients {
		studyUID := util.DeterministicUID(fmt.Sprintf("%s_study_%d", opts.OutputDir, p+1))
		seriesUID := util.DeterministicUID(fmt.Sprintf("%s_study_%d_series_1", opts.OutputDir, p+1))
		studyID := fmt.Sprintf("STD%04d", rng.IntN(9000)+1000)
		accession := fmt.Sprintf("ACC%08d", rng.IntN(90000000)+10000000)
		studyDate := fmt.Sprintf("%04d%02d%02d", rng.IntN(5)+2020, rng.IntN(12)+1, rng.IntN(28)+1)
		studyTime := fmt.Sprintf("%02d%02d%02d", rng.IntN(24), rng.IntN(60), rng.IntN(60))
		scanner := scanners[rng.IntN(len(scanners))]
		params := modalityGen.GenerateSeriesParams(scanner, rng)

		count := imagesPerPatient
		if p < remaining {
			count++
		}

		for instance := 1; instance <= count; instance++ {
			sopInstanceUID := util.DeterministicUID(
				fmt.Sprintf("%s_study_%d_series_1_instance_%d", opts.OutputDir, p+1, instance))

			metadata := []*dicom.Element{
				mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
				mustNewElement(tag.MediaStorageSOPClassUID, []string{modalityGen.SOPClassUID()}),
				mustNewElement(tag.MediaStorageSOPInstanceUID, []string{sopInstanceUID}),
				mustNewElement(tag.SOPClassUID, []string{modalityGen.SOPClassUID()}),
				mustNewElement(tag.SOPInstanceUID, []string{sopInstanceUID}),
				mustNewElement(tag.StudyDate, []string{studyDate}),
				mustNewElement(tag.StudyTime, []string{studyTime}),
				mustNewElement(tag.AccessionNumber, []string{accession}),
				mustNewElement(tag.Modality, []string{string(modalityGen.Modality())}),
				mustNewElement(tag.Manufacturer, []string{scanner.Manufacturer}),
				mustNewElement(tag.ManufacturerModelName, []string{scanner.Model}),
				mustNewElement(tag.ReferringPhysicianName, []string{""}),
				mustNewElement(tag.StudyDescription, []string{"CHEST " + params.ViewPosition}),
				mustNewElement(tag.SeriesDescription, []string{params.ViewPosition}),
				mustNewElement(tag.PatientName, []string{patient.Name}),
				mustNewElement(tag.PatientID, []string{patient.ID}),
				mustNewElement(tag.PatientBirthDate, []string{patient.BirthDate}),
				mustNewElement(tag.PatientSex, []string{patient.Sex}),
				mustNewElement(tag.BodyPartExamined, []string{"CHEST"}),
				mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
				mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
				mustNewElement(tag.StudyID, []string{studyID}),
				mustNewElement(tag.SeriesNumber, []string{"1"}),
				mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(instance)}),
				mustNewElement(tag.PatientOrientation, []string{"P", "F"}),
				mustNewElement(tag.SamplesPerPixel, []int{1}),
				mustNewElement(tag.PhotometricInterpretation, []string{modalityGen.PhotometricInterpretation()}),
				mustNewElement(tag.Rows, []int{size}),
				mustNewElement(tag.Columns, []int{size}),
				mustNewElement(tag.BitsAllocated, []int{int(pixelConfig.BitsAllocated)}),
				mustNewElement(tag.BitsStored, []int{int(pixelConfig.BitsStored)}),
				mustNewElement(tag.HighBit, []int{int(pixelConfig.HighBit)}),
				mustNewElement(tag.PixelRepresentation, []int{int(pixelConfig.PixelRepresentation)}),
				mustNewElement(tag.WindowCenter, []string{floatToDS(params.WindowCenter)}),
				mustNewElement(tag.WindowWidth, []string{floatToDS(params.WindowWidth)}),
			}
			ds := &dicom.Dataset{Elements: metadata}
			if err := modalityGen.AppendModalityElements(ds, params); err != nil {
				return nil, fmt.Errorf("add modality elements for image %d: %w", index, err)
			}
			metadata = ds.Elements

			file := GeneratedFile{
				StudyUID:       studyUID,
				SeriesUID:      seriesUID,
				SOPInstanceUID: sopInstanceUID,
				PatientID:      patient.ID,
				SeriesNumber:   1,
				InstanceNumber: instance,
			}

			var plan edgecases.Plan
			if edgeCaseApplicator != nil {
				plan = edgeCaseApplicator.NextPlan()
			}
			omitted := append(append([]tag.Tag(nil), omit...), mustResolve(plan.Omit)...)
			if plan.OmitWindow {
				omitted = append(omitted, tag.WindowCenter, tag.WindowWidth)
			}
			metadata = omitElements(metadata, omitted)
			metadata = blankElements(metadata, mustResolve(plan.Blank))
			file.Omitted = append(append([]string(nil), omitNames...), plan.Omit...)
			file.Blanked = plan.Blank

			var damage func(string) error
			if corruptionApplicator != nil {
				if t, ok := corruptionApplicator.Planned(index); ok {
					file.Corruption = t
					metadata = corruptionApplicator.PrepareElements(index, metadata)
					i := index
					damage = func(path string) error { return corruptionApplicator.Damage(i, path) }
				}
			}

			sort.Slice(metadata, func(i, j int) bool {
				if metadata[i].Tag.Group != metadata[j].Tag.Group {
					return metadata[i].Tag.Group < metadata[j].Tag.Group
				}
				return metadata[i].Tag.Element < metadata[j].Tag.Element
			})

			pixelSeedHash := fnv.New64a()
			_, _ = fmt.Fprintf(pixelSeedHash, "%d_pixel_%d", seed, index)

			file.Path = filepath.Join(opts.OutputDir, fmt.Sprintf("IMG%04d.dcm", index))
			files = append(files, file)
			tasks = append(tasks, imageTask{
				index:       index,
				size:        size,
				filePath:    file.Path,
				textOverlay: fmt.Sprintf("File %d/%d", index, opts.NumImages),
				pixelSeed:   pixelSeedHash.Sum64(),
				metadata:    metadata,
				pixelConfig: pixelConfig,
				inverted:    modalityGen.PhotometricInterpretation() == "MONOCHROME1",
				damage:      damage,
			})
			index++
		}
	}

	if err := runTasks(tasks, opts.Workers, opts.ProgressCallback); err != nil {
		return nil, err
	}

	logger.Info("radiographs created", zap.Int("count", len(files)), zap.String("dir", opts.OutputDir))
	return files, nil
}

// runTasks processes tasks on a pool of workers and returns the first error.
func runTasks(tasks []imageTask, workers int, progress func(current, total int)) error {
	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(tasks) {
		numWorkers = len(tasks)
	}

	taskChan := make(chan imageTask, len(tasks))
	resultChan := make(chan struct {
		index int
		err   error
	}, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				err := generateImageFromTask(task)
				resultChan <- struct {
					index int
					err   error
				}{task.index, err}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for result := range resultChan {
		if result.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("generate image %d: %w", result.index, result.err)
		}
		completed++
		if progress != nil {
			progress(completed, len(tasks))
		}
	}
	return firstErr
}

// generateImageFromTask synthesizes the pixels for one task and writes the file.
func generateImageFromTask(task imageTask) error {
	size := task.size
	cfg := task.pixelConfig
	nativeFrame := frame.NewNativeFrame[uint16](16, size, size, size*size, 1)

	rng := randv2.New(randv2.NewPCG(task.pixelSeed, task.pixelSeed))
	synthesizeChest(nativeFrame.RawData, size, cfg, rng)
	drawTextOnFrame16(nativeFrame.RawData, size, size, uint16(cfg.MaxValue), task.textOverlay)

	if task.inverted {
		for i, v := range nativeFrame.RawData {
			nativeFrame.RawData[i] = uint16(cfg.MaxValue) - v
		}
	}

	pixelDataInfo := dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}

	elements := make([]*dicom.Element, len(task.metadata)+1)
	copy(elements, task.metadata)
	elements[len(task.metadata)] = mustNewElement(tag.PixelData, pixelDataInfo)

	if err := writeDatasetToFile(task.filePath, dicom.Dataset{Elements: elements}); err != nil {
		return err
	}
	if task.damage != nil {
		if err := task.damage(task.filePath); err != nil {
			return fmt.Errorf("damage file: %w", err)
		}
	}
	return nil
}

// synthesizeChest fills data with a crude frontal chest film: a bright
// mediastinum and two darker lung fields over a radial falloff, plus noise.
// Values are in display polarity (high = bright).
func synthesizeChest(data []uint16, size int, cfg modalities.PixelConfig, rng *randv2.Rand) {
	valueRange := float64(cfg.MaxValue - cfg.MinValue)
	base := float64(cfg.BaseValue)
	c := float64(size) / 2
	maxDist := math.Sqrt(2 * c * c)

	lung := func(x, y, cx float64) float64 {
		dx := (x - cx) / (0.18 * float64(size))
		dy := (y - 0.52*float64(size)) / (0.32 * float64(size))
		return dx*dx + dy*dy
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x), float64(y)
			dist := math.Hypot(fx-c, fy-c) / maxDist
			intensity := base + (1.0-dist)*valueRange*0.3

			if lung(fx, fy, 0.3*float64(size)) < 1 || lung(fx, fy, 0.7*float64(size)) < 1 {
				intensity -= valueRange * 0.2
			}

			noise := (rng.Float64() - 0.5) * valueRange * 0.05
			intensity += noise

			data[y*size+x] = uint16(math.Max(float64(cfg.MinValue), math.Min(float64(cfg.MaxValue), intensity)))
		}
	}
}

// drawTextOnFrame16 stamps text across the middle of the frame: white glyphs
// with a black outline, scaled to about 30% of the image width.
func drawTextOnFrame16(data []uint16, width, height int, white uint16, text string) {
	face := basicfont.Face7x13
	baseTextWidth := font.MeasureString(face, text).Ceil()
	baseTextHeight := 13
	if baseTextWidth == 0 {
		return
	}

	textImg := image.NewAlpha(image.Rect(0, 0, baseTextWidth, baseTextHeight))
	drawer := &font.Drawer{
		Dst:  textImg,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{Y: fixed.I(11)}, // baseline
	}
	drawer.DrawString(text)

	scaleFactor := math.Max(2.0, float64(width)*0.3/float64(baseTextWidth))
	scaledWidth := int(float64(baseTextWidth) * scaleFactor)
	scaledHeight := int(float64(baseTextHeight) * scaleFactor)

	mask := image.NewAlpha(image.Rect(0, 0, scaledWidth, scaledHeight))
	draw.BiLinear.Scale(mask, mask.Bounds(), textImg, textImg.Bounds(), draw.Over, nil)

	x0 := (width - scaledWidth) / 2
	y0 := (height - scaledHeight) / 2
	outline := max(1, scaledHeight/10)

	set := func(x, y int, v uint16) {
		if x >= 0 && x < width && y >= 0 && y < height {
			data[y*width+x] = v
		}
	}

	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			if mask.AlphaAt(sx, sy).A == 0 {
				continue
			}
			for dy := -outline; dy <= outline; dy++ {
				for dx := -outline; dx <= outline; dx++ {
					if dx*dx+dy*dy <= outline*outline {
						set(x0+sx+dx, y0+sy+dy, 0)
					}
				}
			}
		}
	}
	for sy := 0; sy < scaledHeight; sy++ {
		for sx := 0; sx < scaledWidth; sx++ {
			a := mask.AlphaAt(sx, sy).A
			if a == 0 {
				continue
			}
			set(x0+sx, y0+sy, uint16(uint32(white)*uint32(a)/0xff))
		}
	}
}

// resolveOmitTags maps attribute names to tags. Identity UIDs cannot be
// omitted this way; damaged files go through the corruption config.
func resolveOmitTags(names []string) ([]tag.Tag, []string, error) {
	tags := make([]tag.Tag, 0, len(names))
	canonical := make([]string, 0, len(names))
	for _, name := range names {
		info, err := util.GetTagByName(name)
		if err != nil {
			return nil, nil, fmt.Errorf("omit tag: %w", err)
		}
		if info.Role == util.RoleIdentity {
			return nil, nil, fmt.Errorf("omit tag: %s is an identity attribute, use the missing-identity corruption instead", info.Name)
		}
		tags = append(tags, info.Tag)
		canonical = append(canonical, info.Name)
	}
	return tags, canonical, nil
}

// mustResolve maps names produced by the edge case applicator, which only
// draws registered names.
func mustResolve(names []string) []tag.Tag {
	tags := make([]tag.Tag, 0, len(names))
	for _, name := range names {
		info, err := util.GetTagByName(name)
		if err != nil {
			panic(err)
		}
		tags = append(tags, info.Tag)
	}
	return tags
}


func omitElements(elements []*dicom.Element, tags []tag.Tag) []*dicom.Element {
	if len(tags) == 0 {
		return elements
	}
	out := elements[:0:0]
	for _, e := range elements {
		drop := false
		for _, t := range tags {
			if e.Tag == t {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, e)
		}
	}
	return out
}

func blankElements(elements []*dicom.Element, tags []tag.Tag) []*dicom.Element {
	for i, e := range elements {
		for _, t := range tags {
			if e.Tag == t {
				elements[i] = mustNewElement(t, []string{""})
			}
		}
	}
	return elements
}
