package receipt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/entities"
	"Harina-Web-Backend/pkg/extraction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeReceiptRepository struct {
	receipts map[uint]*entities.Receipt
	nextID   uint

	saveCalls      int
	overwriteCalls int
	lookupCalls    int
	deletedIDs     []uint

	stats  domain.ReceiptStatsResponse
	groups []domain.DuplicateGroup
}

func newFakeReceiptRepository() *fakeReceiptRepository {
	return &fakeReceiptRepository{receipts: map[uint]*entities.Receipt{}, nextID: 1}
}

func (f *fakeReceiptRepository) seed(rec *entities.Receipt) *entities.Receipt {
	if rec.ID == 0 {
		rec.ID = f.nextID
	}
	if rec.ID >= f.nextID {
		f.nextID = rec.ID + 1
	}
	f.receipts[rec.ID] = rec
	return rec
}

func (f *fakeReceiptRepository) SaveReceiptWithItems(_ context.Context, receipt *entities.Receipt) error {
	receipt.ID = f.nextID
	f.nextID++
	for _, item := range receipt.Items {
		item.ReceiptID = receipt.ID
	}
	f.receipts[receipt.ID] = receipt
	f.saveCalls++
	return nil
}

func (f *fakeReceiptRepository) OverwriteReceipt(_ context.Context, receipt *entities.Receipt) error {
	if _, ok := f.receipts[receipt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, item := range receipt.Items {
		item.ReceiptID = receipt.ID
	}
	f.receipts[receipt.ID] = receipt
	f.overwriteCalls++
	return nil
}

func (f *fakeReceiptRepository) GetReceiptByID(_ context.Context, id uint) (*entities.Receipt, error) {
	rec, ok := f.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (f *fakeReceiptRepository) GetReceipts(_ context.Context, limit, offset int) ([]*entities.Receipt, error) {
	receipts := make([]*entities.Receipt, 0, len(f.receipts))
	for id := uint(1); id < f.nextID; id++ {
		if rec, ok := f.receipts[id]; ok {
			receipts = append(receipts, rec)
		}
	}
	if offset < len(receipts) {
		receipts = receipts[offset:]
	} else {
		receipts = nil
	}
	if limit > 0 && limit < len(receipts) {
		receipts = receipts[:limit]
	}
	return receipts, nil
}

func (f *fakeReceiptRepository) FindByStoreDateTime(_ context.Context, storeName, transactionDate, transactionTime string) (*entities.Receipt, error) {
	f.lookupCalls++
	for id := uint(1); id < f.nextID; id++ {
		rec, ok := f.receipts[id]
		if !ok {
			continue
		}
		if rec.StoreName == storeName && rec.TransactionDate == transactionDate && rec.TransactionTime == transactionTime {
			return rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeReceiptRepository) GetDuplicateGroups(_ context.Context) ([]domain.DuplicateGroup, error) {
	return f.groups, nil
}

func (f *fakeReceiptRepository) DeleteReceiptsByIDs(_ context.Context, ids []uint) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.receipts[id]; ok {
			delete(f.receipts, id)
			deleted++
		}
	}
	f.deletedIDs = append(f.deletedIDs, ids...)
	return deleted, nil
}

func (f *fakeReceiptRepository) GetStats(_ context.Context) (domain.ReceiptStatsResponse, error) {
	return f.stats, nil
}

type fakeHarinaClient struct {
	data         string
	model        string
	fallbackUsed bool
	keyType      string
	err          error

	calls            int
	lastFilename     string
	lastModel        string
	lastInstructions string
	lastImage        []byte
}

func (f *fakeHarinaClient) Process(_ context.Context, image []byte, filename, model, instructions string) (extraction.ProcessResult, error) {
	f.calls++
	f.lastImage = image
	f.lastFilename = filename
	f.lastModel = model
	f.lastInstructions = instructions
	if f.err != nil {
		return extraction.ProcessResult{}, f.err
	}
	return extraction.ProcessResult{
		Data:         f.data,
		Model:        f.model,
		FallbackUsed: f.fallbackUsed,
		KeyType:      f.keyType,
	}, nil
}

type fakeSettingService struct {
	prompt string
	err    error
}

func (f *fakeSettingService) GetProcessingPrompt(context.Context) (string, error) {
	return f.prompt, f.err
}

func (f *fakeSettingService) UpdateProcessingPrompt(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return prompt, nil
}

type fakeS3 struct {
	objects map[string][]byte

	uploadCalls  int
	lastUploaded string
	uploadErr    error
	readErr      error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) UploadFile(string, *multipart.FileHeader, string, ...string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeS3) UploadBytes(fileName string, data []byte, _ string, folder string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploadCalls++
	key := folder + "/" + fileName
	f.objects[key] = data
	f.lastUploaded = key
	return key, nil
}

func (f *fakeS3) GetFileBytes(objectKey string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("no such object %s", objectKey)
	}
	return data, nil
}

func (f *fakeS3) DeleteFile(objectKey string) error {
	delete(f.objects, objectKey)
	return nil
}

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.s3.test.amazonaws.com/" + objectKey
}

func (f *fakeS3) GetObjectKeyFromLink(link string) string {
	const prefix = "https://bucket.s3.test.amazonaws.com/"
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):]
	}
	return ""
}

type serviceFixture struct {
	repo    *fakeReceiptRepository
	client  *fakeHarinaClient
	setting *fakeSettingService
	s3      *fakeS3
	service ReceiptService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		repo:    newFakeReceiptRepository(),
		client:  &fakeHarinaClient{},
		setting: &fakeSettingService{},
		s3:      newFakeS3(),
	}
	f.service = NewReceiptService(f.repo, f.client, f.setting, f.s3)
	return f
}

// newFileHeader builds a real multipart.FileHeader the way Fiber's FormFile
// would, by round-tripping the bytes through a parsed request.
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func receiptXML(store, date, timeOfDay string, total float64) string {
	return fmt.Sprintf(`<receipt>
  <store_info><n>%s</n></store_info>
  <transaction_info><date>%s</date><time>%s</time></transaction_info>
  <totals><total>%.0f</total></totals>
  <payment_info><method>現金</method></payment_info>
  <items>
    <item><n>Item</n><category>食品・飲料</category><quantity>1</quantity><unit_price>%.0f</unit_price><total_price>%.0f</total_price></item>
  </items>
</receipt>`, store, date, timeOfDay, total, total, total)
}

func TestProcessReceipt_CreatesReceipt(t *testing.T) {
	f := newServiceFixture()
	f.client.data = receiptXML("Cafe A", "2024-01-01", "09:00", 500)
	f.client.keyType = "user"
	f.setting.prompt = "split by aisle"

	res, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image:    newFileHeader(t, "cafe.jpg", []byte("jpeg-bytes")),
		Uploader: "alice",
	})
	require.NoError(t, err)

	assert.False(t, res.WasDuplicate)
	assert.False(t, res.Placeholder)
	assert.NotZero(t, res.ID)
	assert.Equal(t, "Cafe A", res.Receipt.StoreName)
	assert.Equal(t, "alice", res.Receipt.Uploader)
	assert.Equal(t, extraction.DefaultModel, res.Receipt.ModelUsed)

	// image lands in storage before extraction, prompt flows through
	assert.Equal(t, 1, f.s3.uploadCalls)
	assert.Equal(t, []byte("jpeg-bytes"), f.client.lastImage)
	assert.Equal(t, "split by aisle", f.client.lastInstructions)

	saved, ok := f.repo.receipts[res.ID]
	require.True(t, ok)
	assert.Equal(t, "https://bucket.s3.test.amazonaws.com/receipts/cafe.jpg", saved.ImagePath)
	require.Len(t, saved.Items, 1)
	assert.Equal(t, "食品・飲料", saved.Items[0].Category)
}

func TestProcessReceipt_DuplicateTripleReusesExisting(t *testing.T) {
	f := newServiceFixture()
	existing := f.repo.seed(&entities.Receipt{
		StoreName:       "Cafe A",
		TransactionDate: "2024-01-01",
		TransactionTime: "09:00",
		TotalAmount:     500,
	})

	// Same (store, date, time) triple but a different total: the amount
	// is ignored by the ingestion heuristic.
	f.client.data = receiptXML("Cafe A", "2024-01-01", "09:00", 900)

	res, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image: newFileHeader(t, "again.jpg", []byte("img")),
	})
	require.NoError(t, err)

	assert.True(t, res.WasDuplicate)
	assert.Equal(t, existing.ID, res.ID)
	assert.Equal(t, 0, f.repo.saveCalls)
	assert.Equal(t, 500.0, f.repo.receipts[existing.ID].TotalAmount)
}

func TestProcessReceipt_ServiceFailurePersistsPlaceholder(t *testing.T) {
	f := newServiceFixture()
	f.client.err = &domain.ExtractionServiceError{Status: 503, Body: "down"}

	res, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image:    newFileHeader(t, "blurry.jpg", []byte("img")),
		Uploader: "bob",
	})
	require.NoError(t, err)

	assert.True(t, res.Placeholder)
	assert.False(t, res.WasDuplicate)
	assert.Equal(t, extraction.PlaceholderStoreName, res.Receipt.StoreName)
	assert.Equal(t, "bob", res.Receipt.Uploader)

	saved, ok := f.repo.receipts[res.ID]
	require.True(t, ok)
	assert.Equal(t, extraction.PlaceholderStoreName, saved.StoreName)
	assert.Equal(t, "https://bucket.s3.test.amazonaws.com/receipts/blurry.jpg", saved.ImagePath)
}

func TestProcessReceipt_PlaceholdersNeverCollapse(t *testing.T) {
	f := newServiceFixture()
	f.client.err = errors.New("service unreachable")

	first, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image: newFileHeader(t, "one.jpg", []byte("a")),
	})
	require.NoError(t, err)
	second, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image: newFileHeader(t, "two.jpg", []byte("b")),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, second.WasDuplicate)
	assert.Equal(t, 0, f.repo.lookupCalls)
}

func TestProcessReceipt_UnparseableDataPersistsPlaceholder(t *testing.T) {
	f := newServiceFixture()
	f.client.data = "   "

	res, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image: newFileHeader(t, "noise.jpg", []byte("img")),
	})
	require.NoError(t, err)

	assert.True(t, res.Placeholder)
	assert.Equal(t, extraction.PlaceholderStoreName, res.Receipt.StoreName)
}

func TestProcessReceipt_MissingImage(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{})
	assert.ErrorIs(t, err, domain.ErrImageRequired)
	assert.Equal(t, 0, f.client.calls)
}

func TestProcessReceipt_ServiceModelOverridesRequested(t *testing.T) {
	f := newServiceFixture()
	f.client.data = receiptXML("Cafe A", "2024-01-01", "09:00", 500)
	f.client.model = "gemini/gemini-2.5-pro"

	res, err := f.service.ProcessReceipt(context.Background(), domain.ProcessReceiptRequest{
		Image: newFileHeader(t, "r.jpg", []byte("img")),
		Model: "gemini/gemini-2.5-flash",
	})
	require.NoError(t, err)

	assert.Equal(t, "gemini/gemini-2.5-flash", f.client.lastModel)
	assert.Equal(t, "gemini/gemini-2.5-pro", res.Receipt.ModelUsed)
}

func TestGetReceiptByID_NotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.GetReceiptByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
}

func TestGetReceipts_WithStats(t *testing.T) {
	f := newServiceFixture()
	f.repo.seed(&entities.Receipt{StoreName: "A", TotalAmount: 100})
	f.repo.seed(&entities.Receipt{StoreName: "B", TotalAmount: 200})
	f.repo.stats = domain.ReceiptStatsResponse{TotalReceipts: 2, TotalAmount: 300}

	receipts, stats, err := f.service.GetReceipts(context.Background(), 50, 0, true)
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
	require.NotNil(t, stats)
	assert.Equal(t, int64(2), stats.TotalReceipts)

	_, stats, err = f.service.GetReceipts(context.Background(), 50, 0, false)
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestDeleteReceipts(t *testing.T) {
	f := newServiceFixture()
	f.repo.seed(&entities.Receipt{StoreName: "A"})
	f.repo.seed(&entities.Receipt{StoreName: "B"})

	deleted, err := f.service.DeleteReceipts(context.Background(), []uint{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []uint{1, 2}, f.repo.deletedIDs)

	_, err = f.service.DeleteReceipts(context.Background(), []uint{0})
	assert.ErrorIs(t, err, domain.ErrNoValidReceiptIDs)
}

func TestReprocess_OverwritesInPlace(t *testing.T) {
	f := newServiceFixture()
	f.s3.objects["receipts/orig.jpg"] = []byte("stored-img")
	createdAt := time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)
	existing := f.repo.seed(&entities.Receipt{
		Filename:        "orig.jpg",
		StoreName:       extraction.PlaceholderStoreName,
		Uploader:        "carol",
		ModelUsed:       "gemini/gemini-2.5-flash",
		ImagePath:       "https://bucket.s3.test.amazonaws.com/receipts/orig.jpg",
		TransactionDate: "2024-01-01",
		Timestamp:       entities.Timestamp{CreatedAt: createdAt},
	})

	f.client.data = receiptXML("Cafe A", "2024-01-05", "12:30", 750)
	f.client.fallbackUsed = true
	f.client.keyType = "shared"

	res, err := f.service.Reprocess(context.Background(), existing.ID)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, res.Receipt.ID)
	assert.Equal(t, "Cafe A", res.Receipt.StoreName)
	assert.Equal(t, "carol", res.Receipt.Uploader)
	assert.Equal(t, "https://bucket.s3.test.amazonaws.com/receipts/orig.jpg", res.Receipt.ImagePath)
	assert.Equal(t, "gemini/gemini-2.5-flash", res.Receipt.ModelUsed)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, "shared", res.KeyType)

	assert.Equal(t, 1, f.repo.overwriteCalls)
	assert.Equal(t, []byte("stored-img"), f.client.lastImage)
	assert.Equal(t, "Cafe A", f.repo.receipts[existing.ID].StoreName)
	assert.Equal(t, createdAt, f.repo.receipts[existing.ID].CreatedAt)
}

func TestReprocess_NotFound(t *testing.T) {
	f := newServiceFixture()

	_, err := f.service.Reprocess(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
}

func TestReprocess_MissingImage(t *testing.T) {
	f := newServiceFixture()
	existing := f.repo.seed(&entities.Receipt{StoreName: "Cafe A"})

	_, err := f.service.Reprocess(context.Background(), existing.ID)
	assert.ErrorIs(t, err, domain.ErrReceiptImageMissing)
	assert.Equal(t, 0, f.client.calls)
}

func TestReprocess_UnreadableImage(t *testing.T) {
	f := newServiceFixture()
	existing := f.repo.seed(&entities.Receipt{
		StoreName: "Cafe A",
		ImagePath: "https://bucket.s3.test.amazonaws.com/receipts/gone.jpg",
	})

	_, err := f.service.Reprocess(context.Background(), existing.ID)
	assert.ErrorIs(t, err, domain.ErrReadReceiptImage)
	assert.Equal(t, 0, f.client.calls)
}

func TestReprocess_ParseFailureDoesNotOverwrite(t *testing.T) {
	f := newServiceFixture()
	f.s3.objects["receipts/r.jpg"] = []byte("img")
	existing := f.repo.seed(&entities.Receipt{
		StoreName: "Cafe A",
		ImagePath: "https://bucket.s3.test.amazonaws.com/receipts/r.jpg",
	})
	f.client.data = ""

	_, err := f.service.Reprocess(context.Background(), existing.ID)
	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Equal(t, 0, f.repo.overwriteCalls)
	assert.Equal(t, "Cafe A", f.repo.receipts[existing.ID].StoreName)
}

func TestReprocessBatch_CollectsPerIDFailures(t *testing.T) {
	f := newServiceFixture()
	f.s3.objects["receipts/ok.jpg"] = []byte("img")
	ok := f.repo.seed(&entities.Receipt{
		Filename:  "ok.jpg",
		StoreName: "Cafe A",
		ImagePath: "https://bucket.s3.test.amazonaws.com/receipts/ok.jpg",
	})
	noImage := f.repo.seed(&entities.Receipt{StoreName: "Cafe B"})
	f.client.data = receiptXML("Cafe A", "2024-01-01", "09:00", 500)

	res := f.service.ReprocessBatch(context.Background(), []uint{ok.ID, noImage.ID, 999})

	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, noImage.ID, res.Failures[0].ID)
	assert.Equal(t, uint(999), res.Failures[1].ID)
}

func TestGetDuplicateGroups_PassThrough(t *testing.T) {
	f := newServiceFixture()
	f.repo.groups = []domain.DuplicateGroup{
		{
			TransactionDate: "2024-01-01",
			StoreName:       "Cafe A",
			TotalAmount:     500,
			Receipts: []domain.DuplicateReceiptSummary{
				{ID: 1, ProcessedAt: time.Now().UTC().Format(time.RFC3339)},
				{ID: 2},
			},
		},
	}

	groups, err := f.service.GetDuplicateGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Receipts, 2)
}
