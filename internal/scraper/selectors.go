package scraper

// Built-in selector candidates, tried in order. Sources may override any
// list through configuration when a site changes its markup.

var naverLinkCandidates = []string{
	"a.news_tit",
	"div.news_area a.news_tit",
	".news_contents a.news_tit",
	".list_news a.news_tit",
	".news_tit",
	"a[href*='n.news.naver.com']",
	"a[href*='news.naver.com']",
}

var naverTitleCandidates = []string{
	"#ct > div.media_end_head.go_trans > div.media_end_head_title > h2",
	"h2.media_end_head_headline",
	"#title_area span",
	".media_end_head_headline",
	"h3.tit_view",
	".article_header h2",
	"#articleTitle",
	"h1",
}

var naverContentCandidates = []string{
	"#dic_area",
	"#newsct_article",
	".news_end_body_container",
	"#articeBody",
	".article_body",
	".article_view",
	"article",
	"#articleBody",
	".news_end_body",
}

var naverImageCandidates = []string{
	"#dic_area img",
	"#newsct_article img",
	".news_end_body_container img",
	".article_body img",
	"article img",
	"#articleBody img",
}

var naverTableCandidates = []string{
	"#dic_area table",
	"#newsct_article table",
	".news_end_body_container table",
	".article_body table",
	"article table",
}

var naverCommentCandidates = []string{
	".u_cbox_comment_box .u_cbox_contents",
	".u_cbox_contents",
}

// naverArticlePatterns is the allow-list of article URL fragments. Result
// links matching none of them are ads, navigation or non-article pages.
var naverArticlePatterns = []string{
	"n.news.naver.com/mnews/article/",
	"news.naver.com/main/read",
	"n.news.naver.com/article/",
}

const naverCaptionSelector = "em.img_desc, span.img_desc, figcaption"

// Generic publisher page candidates for articles reached through Google.

var genericTitleCandidates = []string{
	"h1",
	"h2.headline",
	".article-title",
	".post-title",
	"article h1",
	".entry-title",
	"#article-title",
	".title",
}

var genericContentCandidates = []string{
	"article",
	".article-body",
	".article-content",
	".post-content",
	".entry-content",
	"#article-body",
	".story-body",
	"main",
	".content",
	"#content",
	"[itemprop='articleBody']",
}
