package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedOptions struct {
	envName         string
	surveyCount     int
	maxResponses    int
	dropCollections bool
	randomSeed      int64
}

type collections struct {
	surveys             string
	failedNotifications string
}

type surveyDocument struct {
	ID                  primitive.ObjectID `bson:"_id"`
	Title               string             `bson:"title"`
	Area                string             `bson:"area"`
	Question            string             `bson:"question"`
	Guidelines          string             `bson:"guidelines,omitempty"`
	PermittedDomains    []string           `bson:"permittedDomains,omitempty"`
	PermittedResponses  *int               `bson:"permittedResponses,omitempty"`
	SummaryInstructions string             `bson:"summaryInstructions,omitempty"`
	CreatorID           string             `bson:"creatorId"`
	ExpiryDate          *time.Time         `bson:"expiryDate,omitempty"`
	Closed              bool               `bson:"closed"`
	Responses           []responseDocument `bson:"responses"`
	Summary             *summaryDocument   `bson:"summary,omitempty"`
	Revision            int64              `bson:"revision"`
	CreatedAt           time.Time          `bson:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt"`
}

type responseDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"userId"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type summaryDocument struct {
	Text        string    `bson:"text"`
	GeneratedAt time.Time `bson:"generatedAt"`
	IsVisible   bool      `bson:"isVisible"`
}

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}

	cfg := collections{
		surveys:             envOrDefault("SURVEY_COLLECTION", "surveys"),
		failedNotifications: envOrDefault("FAILED_NOTIFICATION_COLLECTION", "failed_notifications"),
	}

	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "kikitori")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB 接続に失敗しました: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		if err := dropCollections(ctx, db, cfg); err != nil {
			log.Fatalf("コレクション削除に失敗しました: %v", err)
		}
		log.Printf("既存コレクションを削除しました")
	}

	if err := ensureIndexes(ctx, db, cfg); err != nil {
		log.Fatalf("インデックス作成に失敗しました: %v", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))

	surveyDocs := generateSurveys(rng, opts.surveyCount, opts.maxResponses)
	if len(surveyDocs) == 0 {
		log.Fatal("survey docs が生成されませんでした")
	}
	if err := insertMany(ctx, db.Collection(cfg.surveys), toAnySlice(surveyDocs)); err != nil {
		log.Fatalf("アンケートデータの挿入に失敗しました: %v", err)
	}

	responseTotal := 0
	for _, doc := range surveyDocs {
		responseTotal += len(doc.Responses)
	}

	log.Printf("Seed 完了: surveys=%d responses=%d", len(surveyDocs), responseTotal)
	log.Printf("Mongo: %s / %s (env=%s)", mongoURI, dbName, opts.envName)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "backend/env 内の env ファイル名 (例: local, staging)")
	flag.IntVar(&opts.surveyCount, "surveys", 20, "生成するアンケート数")
	flag.IntVar(&opts.maxResponses, "responses", 8, "1アンケートあたりの最大回答数")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	flag.Parse()

	if opts.surveyCount <= 0 {
		log.Fatal("surveys は 1 以上を指定してください")
	}
	if opts.maxResponses < 0 {
		opts.maxResponses = 0
	}
	return opts
}

func loadEnvFiles(envName string) error {
	base := filepath.Clean(filepath.Join("..", "env"))
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, fmt.Sprintf("%s.env", envName)),
	}
	for _, file := range files {
		if err := loadEnvFile(file); err != nil {
			return err
		}
	}
	return nil
}

func loadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s の読み込みに失敗しました: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func dropCollections(ctx context.Context, db *mongo.Database, cfg collections) error {
	for _, name := range []string{cfg.surveys, cfg.failedNotifications} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			// Drop は存在しない場合も err を返すので warning ログにとどめる
			log.Printf("WARN: コレクション %s の削除に失敗: %v", name, err)
		}
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, cfg collections) error {
	surveyIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_survey_created"),
		},
		{
			Keys:    bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_survey_creator_created"),
		},
		{
			Keys:    bson.D{{Key: "closed", Value: 1}, {Key: "expiryDate", Value: 1}},
			Options: options.Index().SetName("idx_survey_status"),
		},
		{
			Keys:    bson.D{{Key: "responses.userId", Value: 1}},
			Options: options.Index().SetName("idx_survey_respondent"),
		},
	}
	if _, err := db.Collection(cfg.surveys).Indexes().CreateMany(ctx, surveyIndexes); err != nil {
		return err
	}

	if _, err := db.Collection(cfg.failedNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_failed_created"),
	}); err != nil {
		return err
	}

	return nil
}

func generateSurveys(rng *rand.Rand, count, maxResponses int) []surveyDocument {
	now := time.Now().UTC()
	docs := make([]surveyDocument, 0, count)

	for i := 0; i < count; i++ {
		created := now.Add(-time.Duration(rng.Intn(90*24)) * time.Hour)
		creator := fmt.Sprintf("user-%04d", rng.Intn(50))

		var expiry *time.Time
		switch rng.Intn(3) {
		case 0:
			// 期限なし
		case 1:
			future := now.Add(time.Duration(1+rng.Intn(30*24)) * time.Hour)
			expiry = &future
		default:
			past := now.Add(-time.Duration(1+rng.Intn(10*24)) * time.Hour)
			expiry = &past
		}

		var quota *int
		if rng.Intn(3) == 0 {
			limit := 3 + rng.Intn(20)
			quota = &limit
		}

		var domains []string
		if rng.Intn(4) == 0 {
			domains = []string{"example.com", "example.org"}
		}

		closed := rng.Intn(4) == 0

		responses := generateResponses(rng, created, maxResponses, quota)

		var summary *summaryDocument
		if closed && len(responses) >= 2 && rng.Intn(2) == 0 {
			generatedAt := created.Add(time.Duration(len(responses)+1) * time.Hour)
			summary = &summaryDocument{
				Text:        summaryTexts[rng.Intn(len(summaryTexts))],
				GeneratedAt: generatedAt,
				IsVisible:   rng.Intn(2) == 0,
			}
		}

		updated := created
		if len(responses) > 0 {
			updated = responses[len(responses)-1].UpdatedAt
		}

		docs = append(docs, surveyDocument{
			ID:                  primitive.NewObjectID(),
			Title:               surveyTitles[i%len(surveyTitles)],
			Area:                areaOptions[rng.Intn(len(areaOptions))],
			Question:            questionOptions[rng.Intn(len(questionOptions))],
			Guidelines:          guidelineOptions[rng.Intn(len(guidelineOptions))],
			PermittedDomains:    domains,
			PermittedResponses:  quota,
			SummaryInstructions: instructionOptions[rng.Intn(len(instructionOptions))],
			CreatorID:           creator,
			ExpiryDate:          expiry,
			Closed:              closed,
			Responses:           responses,
			Summary:             summary,
			Revision:            int64(len(responses)),
			CreatedAt:           created,
			UpdatedAt:           updated,
		})
	}
	return docs
}

func generateResponses(rng *rand.Rand, surveyCreated time.Time, max int, quota *int) []responseDocument {
	if max <= 0 {
		return []responseDocument{}
	}
	count := rng.Intn(max + 1)
	if quota != nil && count > *quota {
		count = *quota
	}

	responses := make([]responseDocument, 0, count)
	for i := 0; i < count; i++ {
		createdAt := surveyCreated.Add(time.Duration(i+1) * time.Duration(1+rng.Intn(12)) * time.Hour)
		updatedAt := createdAt
		if rng.Intn(4) == 0 {
			updatedAt = createdAt.Add(time.Duration(1+rng.Intn(48)) * time.Hour)
		}
		responses = append(responses, responseDocument{
			ID:        uuid.NewString(),
			UserID:    fmt.Sprintf("respondent-%06d", rng.Intn(999999)),
			Text:      responseTexts[rng.Intn(len(responseTexts))],
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}
	return responses
}

func insertMany(ctx context.Context, col *mongo.Collection, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := col.InsertMany(ctx, docs)
	return err
}

func toAnySlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

var (
	surveyTitles = []string{
		"リモートワーク実態調査", "社内ツール満足度アンケート", "新オフィスレイアウトの意見募集", "福利厚生に関するヒアリング",
		"開発プロセス改善アンケート", "社内勉強会のテーマ募集", "カフェテリアメニュー調査", "オンボーディング体験の振り返り",
		"1on1 の頻度と質について", "社内コミュニケーション調査",
	}

	areaOptions = []string{
		"全社", "開発部", "営業部", "人事部", "カスタマーサポート", "デザインチーム",
	}

	questionOptions = []string{
		"現在の働き方について感じている課題を自由に記述してください。",
		"直近3ヶ月で最も改善してほしいと感じた点は何ですか。",
		"チームのコミュニケーションで良かった点・悪かった点を教えてください。",
		"今の業務で一番時間を取られている作業は何ですか。",
	}

	guidelineOptions = []string{
		"具体的なエピソードを交えて記述してください。",
		"批判だけでなく改善案もあわせてお書きください。",
		"個人名は伏せて記述してください。",
		"",
	}

	instructionOptions = []string{
		"ポジティブな意見とネガティブな意見を分けて要約してください。",
		"頻出するキーワードを3つ挙げ、それぞれの文脈を説明してください。",
		"改善提案を優先度順に整理してください。",
		"",
	}

	responseTexts = []string{
		"会議が多すぎて集中できる時間が細切れになっています。ノーミーティングデーの導入を検討してほしいです。",
		"リモートと出社のバランスは今のままで満足しています。強いて言えば在宅手当の見直しをお願いしたいです。",
		"ドキュメントが散在していて探すのに時間がかかります。置き場所のルールを決めてほしいです。",
		"オンボーディング資料が古く、実際の手順と違う箇所が多かったです。更新担当を決めると良いと思います。",
		"チーム間の依頼フローが不明確で、誰に聞けばいいのか分からないことが多いです。",
		"勉強会の時間が業務時間外になりがちなので、業務時間内での開催を希望します。",
		"評価基準が曖昧に感じます。期初に目標のすり合わせをもっと丁寧にやってほしいです。",
		"カフェテリアのメニューが固定化しているので、季節メニューを増やしてほしいです。",
	}

	summaryTexts = []string{
		"会議時間の削減とドキュメント整備を求める声が多数。働き方自体への満足度は高い。",
		"オンボーディングと評価制度に改善要望が集中。コミュニケーション面は概ね好評。",
		"業務フローの明確化を求める意見が大半を占め、次いで福利厚生の拡充要望が続いた。",
	}
)
