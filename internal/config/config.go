package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Scraper   ScraperConfig  `mapstructure:"scraper"`
	Selectors SelectorConfig `mapstructure:"selectors"`
	Output    OutputConfig   `mapstructure:"output"`
	Database  DatabaseConfig `mapstructure:"database"`
	Redis     RedisConfig    `mapstructure:"redis"`
}

// ScraperConfig holds crawl behavior configuration
type ScraperConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	BatchSize            int      `mapstructure:"batch_size"`
	DownloadWorkers      int      `mapstructure:"download_workers"`
	ImageWidth           int      `mapstructure:"image_width"`
	ImageHeight          int      `mapstructure:"image_height"`
	Proxies              []string `mapstructure:"proxies"`
	UserAgent            string   `mapstructure:"user_agent"`

	// Top-level navigation entries to drop during a build (promo tabs etc.)
	SkipCategories []string `mapstructure:"skip_categories"`
	// Listing pseudo-entries to drop ("all items" style links)
	SkipLabels []string `mapstructure:"skip_labels"`
}

// SelectorConfig holds every CSS selector the crawl depends on. Selectors
// are configuration, not code: pointing the scraper at another storefront
// means swapping this section.
type SelectorConfig struct {
	Nav     NavSelectors     `mapstructure:"nav"`
	Product ProductSelectors `mapstructure:"product"`
}

// NavSelectors identify navigation containers, links and pagination.
type NavSelectors struct {
	CategoryContainer       string `mapstructure:"category_container"`
	CategoryLink            string `mapstructure:"category_link"`
	SubcategoryContainer    string `mapstructure:"subcategory_container"`
	SubcategoryLink         string `mapstructure:"subcategory_link"`
	SubsubcategoryProbe     string `mapstructure:"subsubcategory_probe"`
	SubsubcategoryContainer string `mapstructure:"subsubcategory_container"`
	SubsubcategoryLink      string `mapstructure:"subsubcategory_link"`
	ItemContainer           string `mapstructure:"item_container"`
	ItemLink                string `mapstructure:"item_link"`
	Pagination              string `mapstructure:"pagination"`
}

// ProductSelectors identify per-product fields on a detail page.
type ProductSelectors struct {
	Title              string `mapstructure:"title"`
	Brand              string `mapstructure:"brand"`
	Packaging          string `mapstructure:"packaging"`
	PriceMeta          string `mapstructure:"price_meta"`
	CurrencyMeta       string `mapstructure:"currency_meta"`
	DescriptionMain    string `mapstructure:"description_main"`
	DescriptionSection string `mapstructure:"description_section"`
	SectionHeader      string `mapstructure:"section_header"`
	SectionBody        string `mapstructure:"section_body"`
	Thumbnails         string `mapstructure:"thumbnails"`
	ThumbnailSlide     string `mapstructure:"thumbnail_slide"`
	MainImage          string `mapstructure:"main_image"`
	ImageAttr          string `mapstructure:"image_attr"`
}

// OutputConfig holds the on-disk output locations
type OutputConfig struct {
	TreeFile       string `mapstructure:"tree_file"`
	ProductsFile   string `mapstructure:"products_file"`
	CategoriesFile string `mapstructure:"categories_file"`
	ImagesDir      string `mapstructure:"images_dir"`
}

// DatabaseConfig holds the optional Postgres mirror configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds the optional progress-state store configuration
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config.yaml: defaults plus env overrides still form a full config.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("scraper.base_url", "https://zakupy.biedronka.pl")
	viper.SetDefault("scraper.timeout", 30)
	viper.SetDefault("scraper.max_requests_per_second", 5)
	viper.SetDefault("scraper.batch_size", 5)
	viper.SetDefault("scraper.download_workers", 5)
	viper.SetDefault("scraper.image_width", 800)
	viper.SetDefault("scraper.image_height", 800)
	viper.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	viper.SetDefault("scraper.skip_categories", []string{"Polecane"})
	viper.SetDefault("scraper.skip_labels", []string{"Wszystkie"})

	viper.SetDefault("selectors.nav.category_container", "nav.header-navigation")
	viper.SetDefault("selectors.nav.category_link", "a.header-l1-item__link")
	viper.SetDefault("selectors.nav.subcategory_container", "div.refinement-category")
	viper.SetDefault("selectors.nav.subcategory_link", "a.refinement-category__link")
	viper.SetDefault("selectors.nav.subsubcategory_probe", "div.refinement-subcategory__wrapper")
	viper.SetDefault("selectors.nav.subsubcategory_container", "ul.refinement-subcategory__list")
	viper.SetDefault("selectors.nav.subsubcategory_link", "a.refinement-subcategory__link")
	viper.SetDefault("selectors.nav.item_container", "ul.product-grid.js-infinite-scroll-grid.tiles-container")
	viper.SetDefault("selectors.nav.item_link", "li.product-grid__item a.product-tile-clickable.js-product-link")
	viper.SetDefault("selectors.nav.pagination", "div.bucket-pagination__bucket")

	viper.SetDefault("selectors.product.title", "h1.js-product-name.product-description__name")
	viper.SetDefault("selectors.product.brand", "span.product-description__brand")
	viper.SetDefault("selectors.product.packaging", "div.packaging-details")
	viper.SetDefault("selectors.product.price_meta", `meta[itemprop="price"]`)
	viper.SetDefault("selectors.product.currency_meta", `meta[itemprop="priceCurrency"]`)
	viper.SetDefault("selectors.product.description_main", "div.js-pdp-description-main")
	viper.SetDefault("selectors.product.description_section", "div.product-description__section.ui-expandable")
	viper.SetDefault("selectors.product.section_header", "h2.product-description__section-header.ui-expandable__header")
	viper.SetDefault("selectors.product.section_body", "div.product-description__section-body.ui-expandable__body")
	viper.SetDefault("selectors.product.thumbnails", "div.carousel-product-thumbnails")
	viper.SetDefault("selectors.product.thumbnail_slide", "div.swiper-slide")
	viper.SetDefault("selectors.product.main_image", "div.carousel-product")
	viper.SetDefault("selectors.product.image_attr", "data-srcset")

	viper.SetDefault("output.tree_file", "data/tree.json")
	viper.SetDefault("output.products_file", "data/products.jsonl")
	viper.SetDefault("output.categories_file", "data/categories.jsonl")
	viper.SetDefault("output.images_dir", "data/images")

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "catalog")
	viper.SetDefault("database.user", "catalog_user")
	viper.SetDefault("database.password", "catalog_pass")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
}
